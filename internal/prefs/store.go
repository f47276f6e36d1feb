// Package prefs keeps the application preferences (custom tools, attached
// config files, layout, theme and settings) and the list of recently opened
// config files.
package prefs

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cliconfig-go/internal/catalog"
	"cliconfig-go/internal/events"
)

// CustomToolIDPrefix starts the id of every user-defined tool.
const CustomToolIDPrefix = "custom-"

// Persister loads and saves preferences. LoadPreferences returns nil when
// nothing has been saved yet.
type Persister interface {
	LoadPreferences() (*Preferences, error)
	SavePreferences(p Preferences) error
}

// Publisher receives a notification after every change.
type Publisher interface {
	Publish(event events.Event)
}

// Store owns the preferences. Changes are saved through the persister
// before the method returns; a failed save is returned to the caller and
// leaves the in-memory value changed.
type Store struct {
	mu        sync.RWMutex
	prefs     Preferences
	persister Persister
	publisher Publisher
	logger    *zap.Logger
	newID     func() string
}

// NewStore creates a store and restores saved preferences. persister may be
// nil for an in-memory store.
func NewStore(persister Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		prefs:     DefaultPreferences(),
		persister: persister,
		logger:    logger,
		newID:     func() string { return CustomToolIDPrefix + uuid.NewString() },
	}

	if persister == nil {
		return s
	}

	saved, err := persister.LoadPreferences()
	if err != nil {
		logger.Error("Failed to load preferences, using defaults", zap.Error(err))
		return s
	}
	if saved != nil {
		s.prefs = saved.clone()
		if _, err := ParseTheme(string(s.prefs.Theme)); err != nil {
			logger.Warn("Ignoring unknown saved theme", zap.String("theme", string(s.prefs.Theme)))
			s.prefs.Theme = DefaultTheme
		}
		s.prefs.fillNil()
	}
	return s
}

func (p *Preferences) fillNil() {
	if p.CustomTools == nil {
		p.CustomTools = []CustomTool{}
	}
	if p.ToolConfigs == nil {
		p.ToolConfigs = []ToolConfigFiles{}
	}
	if p.ExpandedTools == nil {
		p.ExpandedTools = []string{}
	}
	if p.SidebarWidth == 0 {
		p.SidebarWidth = DefaultSidebarWidth
	}
}

// SetPublisher sets the publisher notified of changes.
func (s *Store) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Snapshot returns a copy of the current preferences.
func (s *Store) Snapshot() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.clone()
}

// CustomTools returns the custom tools in the order they were added.
func (s *Store) CustomTools() []CustomTool {
	return s.Snapshot().CustomTools
}

// CustomTool returns the custom tool with the given id.
func (s *Store) CustomTool(id string) (CustomTool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.prefs.CustomTools {
		if t.ID == id {
			return t, nil
		}
	}
	return CustomTool{}, fmt.Errorf("%w: %s", ErrCustomToolNotFound, id)
}

// FilterCustomTools returns the custom tools whose name contains query,
// ignoring case.
func (s *Store) FilterCustomTools(query string) []CustomTool {
	return catalog.Filter(s.CustomTools(), query)
}

// AddCustomTool assigns tool a new id and appends it. The config format is
// detected from the path when it is empty.
func (s *Store) AddCustomTool(tool CustomTool) (CustomTool, error) {
	tool, err := normalizeCustomTool(tool)
	if err != nil {
		return CustomTool{}, err
	}

	tool.ID = s.newID()
	err = s.update("add_custom_tool", tool.ID, func(p *Preferences) error {
		p.CustomTools = append(p.CustomTools, tool)
		return nil
	})
	return tool, err
}

// UpdateCustomTool changes the given fields of a custom tool.
func (s *Store) UpdateCustomTool(id string, upd CustomToolUpdate) (CustomTool, error) {
	var updated CustomTool
	err := s.update("update_custom_tool", id, func(p *Preferences) error {
		for i, t := range p.CustomTools {
			if t.ID != id {
				continue
			}
			next, err := normalizeCustomTool(upd.apply(t))
			if err != nil {
				return err
			}
			p.CustomTools[i] = next
			updated = next
			return nil
		}
		return fmt.Errorf("%w: %s", ErrCustomToolNotFound, id)
	})
	return updated, err
}

// RemoveCustomTool deletes a custom tool.
func (s *Store) RemoveCustomTool(id string) error {
	return s.update("remove_custom_tool", id, func(p *Preferences) error {
		for i, t := range p.CustomTools {
			if t.ID == id {
				p.CustomTools = append(p.CustomTools[:i], p.CustomTools[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrCustomToolNotFound, id)
	})
}

// SidebarCollapsed reports whether the sidebar is collapsed.
func (s *Store) SidebarCollapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.SidebarCollapsed
}

// SetSidebarCollapsed sets the sidebar state.
func (s *Store) SetSidebarCollapsed(collapsed bool) error {
	return s.update("set_sidebar_collapsed", "", func(p *Preferences) error {
		p.SidebarCollapsed = collapsed
		return nil
	})
}

// Theme returns the current theme.
func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Theme
}

// SetTheme sets the theme.
func (s *Store) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return s.update("set_theme", "", func(p *Preferences) error {
		p.Theme = theme
		return nil
	})
}

// ToggleTheme advances dark → light → system → dark and returns the new theme.
func (s *Store) ToggleTheme() (Theme, error) {
	var next Theme
	err := s.update("toggle_theme", "", func(p *Preferences) error {
		next = p.Theme.Next()
		p.Theme = next
		return nil
	})
	return next, err
}

// SidebarWidth returns the sidebar width in pixels.
func (s *Store) SidebarWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.SidebarWidth
}

// SetSidebarWidth stores the sidebar width, clamped to MinSidebarWidth and
// MaxSidebarWidth, and returns the stored value.
func (s *Store) SetSidebarWidth(width int) (int, error) {
	width = min(max(width, MinSidebarWidth), MaxSidebarWidth)
	err := s.update("set_sidebar_width", "", func(p *Preferences) error {
		p.SidebarWidth = width
		return nil
	})
	return width, err
}

// ExpandedTools returns the ids of the tools expanded in the sidebar.
func (s *Store) ExpandedTools() []string {
	return s.Snapshot().ExpandedTools
}

// ToggleToolExpanded flips one tool between expanded and collapsed and
// reports whether it is now expanded.
func (s *Store) ToggleToolExpanded(toolID string) (bool, error) {
	var expanded bool
	err := s.update("toggle_tool_expanded", toolID, func(p *Preferences) error {
		for i, id := range p.ExpandedTools {
			if id == toolID {
				p.ExpandedTools = append(p.ExpandedTools[:i], p.ExpandedTools[i+1:]...)
				return nil
			}
		}
		p.ExpandedTools = append(p.ExpandedTools, toolID)
		expanded = true
		return nil
	})
	return expanded, err
}

// ExpandAllTools marks exactly the given tools as expanded.
func (s *Store) ExpandAllTools(toolIDs []string) error {
	return s.update("expand_all_tools", "", func(p *Preferences) error {
		p.ExpandedTools = append([]string{}, toolIDs...)
		return nil
	})
}

// CollapseAllTools collapses every tool.
func (s *Store) CollapseAllTools() error {
	return s.update("collapse_all_tools", "", func(p *Preferences) error {
		p.ExpandedTools = []string{}
		return nil
	})
}

// Settings returns the editor, backup and behavior settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Settings{
		Editor:   s.prefs.EditorSettings,
		Backup:   s.prefs.BackupSettings,
		Behavior: s.prefs.BehaviorSettings,
	}
}

// UpdateSettings applies fn to a copy of the settings and saves the result
// when fn succeeds.
func (s *Store) UpdateSettings(fn func(st *Settings) error) (Settings, error) {
	var out Settings
	err := s.update("update_settings", "", func(p *Preferences) error {
		st := Settings{Editor: p.EditorSettings, Backup: p.BackupSettings, Behavior: p.BehaviorSettings}
		if err := fn(&st); err != nil {
			return err
		}
		p.EditorSettings, p.BackupSettings, p.BehaviorSettings = st.Editor, st.Backup, st.Behavior
		out = st
		return nil
	})
	return out, err
}

// ResetSettings restores the default settings. Custom tools, config files
// and layout are kept.
func (s *Store) ResetSettings() error {
	return s.update("reset_settings", "", func(p *Preferences) error {
		d := DefaultSettings()
		p.EditorSettings, p.BackupSettings, p.BehaviorSettings = d.Editor, d.Backup, d.Behavior
		return nil
	})
}

// Restore replaces every preference with saved, as when loading a backup.
func (s *Store) Restore(saved Preferences) error {
	if _, err := ParseTheme(string(saved.Theme)); err != nil {
		return err
	}
	return s.update("restore", "", func(p *Preferences) error {
		*p = saved.clone()
		p.fillNil()
		return nil
	})
}

// update applies fn to a copy of the preferences and, when fn succeeds,
// installs the copy, saves it and publishes a PreferencesChanged event.
func (s *Store) update(action, toolID string, fn func(p *Preferences) error) error {
	s.mu.Lock()
	next := s.prefs.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.prefs = next

	var saveErr error
	if s.persister != nil {
		if err := s.persister.SavePreferences(next.clone()); err != nil {
			s.logger.Error("Failed to save preferences", zap.String("action", action), zap.Error(err))
			saveErr = fmt.Errorf("failed to save preferences: %w", err)
		}
	}
	publisher := s.publisher
	s.mu.Unlock()

	if publisher != nil {
		publisher.Publish(events.Event{Type: events.PreferencesChanged, Action: action, ToolID: toolID})
	}
	return saveErr
}

func normalizeCustomTool(tool CustomTool) (CustomTool, error) {
	tool.Name = strings.TrimSpace(tool.Name)
	tool.ConfigPath = strings.TrimSpace(tool.ConfigPath)
	if tool.Name == "" {
		return tool, fmt.Errorf("%w: name is required", ErrInvalidCustomTool)
	}
	if tool.ConfigPath == "" {
		return tool, fmt.Errorf("%w: config path is required", ErrInvalidCustomTool)
	}

	if tool.ConfigFormat == "" {
		f, err := catalog.DetectFormat(tool.ConfigPath)
		if err != nil {
			return tool, fmt.Errorf("%w: cannot detect format of %s, set it explicitly", ErrInvalidCustomTool, tool.ConfigPath)
		}
		tool.ConfigFormat = f
	}
	if !tool.ConfigFormat.Valid() {
		return tool, fmt.Errorf("%w: %q", catalog.ErrUnsupportedFormat, tool.ConfigFormat)
	}
	return tool, nil
}
