package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cliconfig-go/internal/catalog"
)

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeSystem Theme = "system"
)

// DefaultTheme is used until the user picks one.
const DefaultTheme = ThemeDark

var themeCycle = []Theme{ThemeDark, ThemeLight, ThemeSystem}

var (
	// ErrUnknownTheme is returned for theme names other than dark, light and system.
	ErrUnknownTheme = errors.New("unknown theme")

	// ErrCustomToolNotFound is returned when no custom tool has the given id.
	ErrCustomToolNotFound = errors.New("custom tool not found")

	// ErrInvalidCustomTool is returned when a custom tool lacks a name or path.
	ErrInvalidCustomTool = errors.New("invalid custom tool")

	// ErrConfigFileNotFound is returned when a tool has no config file with the given id.
	ErrConfigFileNotFound = errors.New("config file not found")

	// ErrInvalidConfigFile is returned when a config file lacks a label or path.
	ErrInvalidConfigFile = errors.New("invalid config file")

	// ErrInvalidSetting is returned for an unknown setting key or a bad value.
	ErrInvalidSetting = errors.New("invalid setting")
)

// ParseTheme parses a theme name, ignoring case.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range themeCycle {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q (must be dark, light or system)", ErrUnknownTheme, s)
}

// Next returns the theme after t in the cycle dark, light, system.
// An unknown theme restarts the cycle at dark.
func (t Theme) Next() Theme {
	for i, known := range themeCycle {
		if t == known {
			return themeCycle[(i+1)%len(themeCycle)]
		}
	}
	return themeCycle[0]
}

// CustomTool is a user-defined tool with a single config file.
type CustomTool struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	ConfigPath   string               `json:"configPath"`
	ConfigFormat catalog.ConfigFormat `json:"configFormat"`
	Description  string               `json:"description,omitempty"`
	Icon         string               `json:"icon,omitempty"`
}

// ToolID returns the tool's id.
func (c CustomTool) ToolID() string { return c.ID }

// DisplayName returns the tool's name.
func (c CustomTool) DisplayName() string { return c.Name }

// CustomToolUpdate holds the fields to change on a custom tool. Nil fields
// are left as they are.
type CustomToolUpdate struct {
	Name         *string
	ConfigPath   *string
	ConfigFormat *catalog.ConfigFormat
	Description  *string
	Icon         *string
}

func (u CustomToolUpdate) apply(c CustomTool) CustomTool {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.ConfigPath != nil {
		c.ConfigPath = *u.ConfigPath
	}
	if u.ConfigFormat != nil {
		c.ConfigFormat = *u.ConfigFormat
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Icon != nil {
		c.Icon = *u.Icon
	}
	return c
}

// ConfigFile is an extra config file the user attached to a tool.
type ConfigFile struct {
	ID     string               `json:"id"`
	Label  string               `json:"label"`
	Path   string               `json:"path"`
	Format catalog.ConfigFormat `json:"format"`
	Icon   string               `json:"icon,omitempty"`
	// JSONPath selects a nested object inside the file, e.g. "mcpServers".
	JSONPath string `json:"jsonPath,omitempty"`
}

// ConfigFileUpdate holds the fields to change on a config file. Nil fields
// are left as they are.
type ConfigFileUpdate struct {
	Label    *string
	Path     *string
	Format   *catalog.ConfigFormat
	Icon     *string
	JSONPath *string
}

func (u ConfigFileUpdate) apply(f ConfigFile) ConfigFile {
	if u.Label != nil {
		f.Label = *u.Label
	}
	if u.Path != nil {
		f.Path = *u.Path
	}
	if u.Format != nil {
		f.Format = *u.Format
	}
	if u.Icon != nil {
		f.Icon = *u.Icon
	}
	if u.JSONPath != nil {
		f.JSONPath = *u.JSONPath
	}
	return f
}

// ToolConfigFiles lists the extra config files of one tool.
type ToolConfigFiles struct {
	ToolID      string       `json:"toolId"`
	ConfigFiles []ConfigFile `json:"configFiles"`
}

// Sidebar widths in pixels.
const (
	DefaultSidebarWidth = 288
	MinSidebarWidth     = 220
	MaxSidebarWidth     = 400
)

// Preferences is the persisted application preferences. Keys written by
// other versions are kept in Extra and written back unchanged.
type Preferences struct {
	CustomTools      []CustomTool      `json:"customTools"`
	ToolConfigs      []ToolConfigFiles `json:"toolConfigs"`
	SidebarCollapsed bool              `json:"sidebarCollapsed"`
	SidebarWidth     int               `json:"sidebarWidth"`
	ExpandedTools    []string          `json:"expandedTools"`
	Theme            Theme             `json:"theme"`
	EditorSettings   EditorSettings    `json:"editorSettings"`
	BackupSettings   BackupSettings    `json:"backupSettings"`
	BehaviorSettings BehaviorSettings  `json:"behaviorSettings"`

	Extra map[string]json.RawMessage `json:"-"`
}

// DefaultPreferences returns the preferences of a fresh install.
func DefaultPreferences() Preferences {
	return Preferences{
		CustomTools:      []CustomTool{},
		ToolConfigs:      []ToolConfigFiles{},
		SidebarWidth:     DefaultSidebarWidth,
		ExpandedTools:    []string{},
		Theme:            DefaultTheme,
		EditorSettings:   DefaultEditorSettings(),
		BackupSettings:   DefaultBackupSettings(),
		BehaviorSettings: DefaultBehaviorSettings(),
	}
}

type preferencesFields Preferences

// MarshalJSON writes the known fields followed by any unknown keys.
func (p Preferences) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(preferencesFields(p))
	if err != nil || len(p.Extra) == 0 {
		return known, err
	}

	merged := make(map[string]json.RawMessage, len(p.Extra)+len(preferenceKeys))
	for k, v := range p.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes over the current value, so keys missing from data
// keep what p already holds.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	extra := p.Extra
	if err := json.Unmarshal(data, (*preferencesFields)(p)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if preferenceKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	p.Extra = extra
	return nil
}

var preferenceKeys = map[string]bool{
	"customTools":      true,
	"toolConfigs":      true,
	"sidebarCollapsed": true,
	"sidebarWidth":     true,
	"expandedTools":    true,
	"theme":            true,
	"editorSettings":   true,
	"backupSettings":   true,
	"behaviorSettings": true,
}

func (p Preferences) clone() Preferences {
	out := p
	out.CustomTools = append([]CustomTool{}, p.CustomTools...)
	out.ToolConfigs = make([]ToolConfigFiles, len(p.ToolConfigs))
	for i, tc := range p.ToolConfigs {
		out.ToolConfigs[i] = ToolConfigFiles{
			ToolID:      tc.ToolID,
			ConfigFiles: append([]ConfigFile{}, tc.ConfigFiles...),
		}
	}
	out.ExpandedTools = append([]string{}, p.ExpandedTools...)
	if p.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// RecentFile is a config file the user opened recently.
type RecentFile struct {
	ToolID      string `json:"toolId"`
	ToolName    string `json:"toolName"`
	ConfigID    string `json:"configId"`
	ConfigLabel string `json:"configLabel"`
	Path        string `json:"path"`
	// Timestamp is when the file was opened, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}
