package prefs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EditorSettings configures the config file editor.
type EditorSettings struct {
	FontSize     int    `json:"fontSize"`
	FontFamily   string `json:"fontFamily"`
	TabSize      int    `json:"tabSize"`
	WordWrap     string `json:"wordWrap"`    // on, off or wordWrapColumn
	LineNumbers  string `json:"lineNumbers"` // on, off or relative
	Minimap      bool   `json:"minimap"`
	FormatOnSave bool   `json:"formatOnSave"`
	AutoSave     bool   `json:"autoSave"`
	// AutoSaveDelay is in milliseconds.
	AutoSaveDelay int `json:"autoSaveDelay"`
}

// BackupSettings controls the copies kept before a config file is overwritten.
type BackupSettings struct {
	Enabled    bool `json:"enabled"`
	MaxBackups int  `json:"maxBackups"`
}

// BehaviorSettings holds the remaining UI behavior switches.
type BehaviorSettings struct {
	ConfirmBeforeDelete    bool   `json:"confirmBeforeDelete"`
	ExpandToolsByDefault   bool   `json:"expandToolsByDefault"`
	RememberLastOpenedFile bool   `json:"rememberLastOpenedFile"`
	ReduceMotion           string `json:"reduceMotion"` // on, off or system
}

// Settings groups the three settings blocks so they can be edited and
// reset together.
type Settings struct {
	Editor   EditorSettings   `json:"editorSettings"`
	Backup   BackupSettings   `json:"backupSettings"`
	Behavior BehaviorSettings `json:"behaviorSettings"`
}

func DefaultEditorSettings() EditorSettings {
	return EditorSettings{
		FontSize:      13,
		FontFamily:    "'JetBrains Mono', 'Fira Code', monospace",
		TabSize:       2,
		WordWrap:      "on",
		LineNumbers:   "on",
		AutoSaveDelay: 2000,
	}
}

func DefaultBackupSettings() BackupSettings {
	return BackupSettings{Enabled: true, MaxBackups: 1}
}

func DefaultBehaviorSettings() BehaviorSettings {
	return BehaviorSettings{
		ConfirmBeforeDelete:    true,
		RememberLastOpenedFile: true,
		ReduceMotion:           "system",
	}
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Editor:   DefaultEditorSettings(),
		Backup:   DefaultBackupSettings(),
		Behavior: DefaultBehaviorSettings(),
	}
}

type settingField struct {
	get func(s *Settings) string
	set func(s *Settings, v string) error
}

func intField(ptr func(s *Settings) *int, min, max int) settingField {
	return settingField{
		get: func(s *Settings) string { return strconv.Itoa(*ptr(s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%q is not a number", v)
			}
			if n < min || n > max {
				return fmt.Errorf("%d is outside %d..%d", n, min, max)
			}
			*ptr(s) = n
			return nil
		},
	}
}

func boolField(ptr func(s *Settings) *bool) settingField {
	return settingField{
		get: func(s *Settings) string { return strconv.FormatBool(*ptr(s)) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%q is not a boolean", v)
			}
			*ptr(s) = b
			return nil
		},
	}
}

func enumField(ptr func(s *Settings) *string, allowed ...string) settingField {
	return settingField{
		get: func(s *Settings) string { return *ptr(s) },
		set: func(s *Settings, v string) error {
			v = strings.TrimSpace(v)
			for _, a := range allowed {
				if v == a {
					*ptr(s) = v
					return nil
				}
			}
			return fmt.Errorf("%q must be one of %s", v, strings.Join(allowed, ", "))
		},
	}
}

var settingFields = map[string]settingField{
	"editor.fontSize": intField(func(s *Settings) *int { return &s.Editor.FontSize }, 8, 32),
	"editor.fontFamily": {
		get: func(s *Settings) string { return s.Editor.FontFamily },
		set: func(s *Settings, v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("font family is empty")
			}
			s.Editor.FontFamily = v
			return nil
		},
	},
	"editor.tabSize":       intField(func(s *Settings) *int { return &s.Editor.TabSize }, 1, 8),
	"editor.wordWrap":      enumField(func(s *Settings) *string { return &s.Editor.WordWrap }, "on", "off", "wordWrapColumn"),
	"editor.lineNumbers":   enumField(func(s *Settings) *string { return &s.Editor.LineNumbers }, "on", "off", "relative"),
	"editor.minimap":       boolField(func(s *Settings) *bool { return &s.Editor.Minimap }),
	"editor.formatOnSave":  boolField(func(s *Settings) *bool { return &s.Editor.FormatOnSave }),
	"editor.autoSave":      boolField(func(s *Settings) *bool { return &s.Editor.AutoSave }),
	"editor.autoSaveDelay": intField(func(s *Settings) *int { return &s.Editor.AutoSaveDelay }, 500, 60000),

	"backup.enabled":    boolField(func(s *Settings) *bool { return &s.Backup.Enabled }),
	"backup.maxBackups": intField(func(s *Settings) *int { return &s.Backup.MaxBackups }, 1, 100),

	"behavior.confirmBeforeDelete":    boolField(func(s *Settings) *bool { return &s.Behavior.ConfirmBeforeDelete }),
	"behavior.expandToolsByDefault":   boolField(func(s *Settings) *bool { return &s.Behavior.ExpandToolsByDefault }),
	"behavior.rememberLastOpenedFile": boolField(func(s *Settings) *bool { return &s.Behavior.RememberLastOpenedFile }),
	"behavior.reduceMotion":           enumField(func(s *Settings) *string { return &s.Behavior.ReduceMotion }, "on", "off", "system"),
}

// SettingKeys returns the keys accepted by Get and Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingFields))
	for k := range settingFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a setting as text.
func (s *Settings) Get(key string) (string, error) {
	f, ok := settingFields[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	return f.get(s), nil
}

// Set parses value and stores it under key.
func (s *Settings) Set(key, value string) error {
	f, ok := settingFields[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	if err := f.set(s, value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, key, err)
	}
	return nil
}
