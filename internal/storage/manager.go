// Package storage persists the visibility, preferences and recent-files
// stores in a bbolt database, one namespace per store.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cliconfig-go/internal/prefs"
	"cliconfig-go/internal/visibility"
)

// Manager provides a unified interface for storage operations. It implements
// visibility.Persister, prefs.Persister and prefs.RecentPersister.
type Manager struct {
	db     *BoltDB
	mu     sync.RWMutex
	logger *zap.SugaredLogger
}

// NewManager creates a new storage manager
func NewManager(dataDir string, logger *zap.SugaredLogger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := NewBoltDB(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt database: %w", err)
	}

	return &Manager{
		db:     db,
		logger: logger,
	}, nil
}

// OpenBackup opens a database copy written by Backup for reading.
func OpenBackup(path string, logger *zap.SugaredLogger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db, err := OpenBoltFile(path, logger)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, logger: logger}, nil
}

// Close closes the storage manager
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

// GetBoltDB returns the wrapped BoltDB instance
func (m *Manager) GetBoltDB() *BoltDB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// LoadVisibility returns the saved visibility state, or nil if none was saved.
func (m *Manager) LoadVisibility() (*visibility.State, error) {
	var env Envelope[visibility.State]
	found, err := m.loadEnvelope(VisibilityNamespace, &env)
	if err != nil || !found {
		return nil, err
	}

	state := normalizeVisibility(env.State)
	return &state, nil
}

// SaveVisibility persists the visibility state.
func (m *Manager) SaveVisibility(state visibility.State) error {
	return m.saveJSON(VisibilityNamespace, &Envelope[visibility.State]{State: state})
}

// LoadPreferences returns the saved preferences, or nil if none were saved.
// Keys missing from the stored value keep their defaults.
func (m *Manager) LoadPreferences() (*prefs.Preferences, error) {
	env := Envelope[prefs.Preferences]{State: prefs.DefaultPreferences()}
	found, err := m.loadEnvelope(PreferencesNamespace, &env)
	if err != nil || !found {
		return nil, err
	}
	return &env.State, nil
}

// SavePreferences persists the preferences.
func (m *Manager) SavePreferences(p prefs.Preferences) error {
	return m.saveJSON(PreferencesNamespace, &Envelope[prefs.Preferences]{State: p})
}

// LoadRecentFiles returns the saved recent files, most recent first.
// Nothing saved yields an empty list. An unreadable value is logged and
// treated as empty.
func (m *Manager) LoadRecentFiles() ([]prefs.RecentFile, error) {
	raw, err := m.get(RecentFilesNamespace)
	if errors.Is(err, ErrNotFound) {
		return []prefs.RecentFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	var files []prefs.RecentFile
	if err := json.Unmarshal(raw, &files); err != nil {
		m.logger.Warnw("Ignoring unreadable recent files", "error", err)
		return []prefs.RecentFile{}, nil
	}
	if files == nil {
		files = []prefs.RecentFile{}
	}
	return files, nil
}

// SaveRecentFiles persists the recent files as a bare JSON array.
func (m *Manager) SaveRecentFiles(files []prefs.RecentFile) error {
	if files == nil {
		files = []prefs.RecentFile{}
	}
	return m.saveJSON(RecentFilesNamespace, files)
}

// ClearRecentFiles removes the recent files namespace entirely.
func (m *Manager) ClearRecentFiles() error {
	db, err := m.handle()
	if err != nil {
		return err
	}
	if err := db.Delete(RecentFilesNamespace); err != nil {
		return fmt.Errorf("failed to clear %s: %w", RecentFilesNamespace, err)
	}
	return nil
}

// LoadDismissedUpdate returns the release version the user chose to skip,
// or "" when none was dismissed.
func (m *Manager) LoadDismissedUpdate() (string, error) {
	raw, err := m.get(DismissedUpdateNamespace)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		m.logger.Warnw("Ignoring unreadable dismissed update", "error", err)
		return "", nil
	}
	return version, nil
}

// SaveDismissedUpdate records a release version to skip in update checks.
func (m *Manager) SaveDismissedUpdate(version string) error {
	return m.saveJSON(DismissedUpdateNamespace, version)
}

// Dump returns every stored namespace with its raw JSON value.
func (m *Manager) Dump() (map[string]json.RawMessage, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}

	names, err := db.Namespaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}

	out := make(map[string]json.RawMessage, len(names))
	for _, name := range names {
		raw, err := db.Get(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		out[name] = raw
	}
	return out, nil
}

// Backup writes a copy of the database to destPath
func (m *Manager) Backup(destPath string) error {
	db, err := m.handle()
	if err != nil {
		return err
	}
	return db.Backup(destPath)
}

// GetSchemaVersion returns the schema version of the database
func (m *Manager) GetSchemaVersion() (uint64, error) {
	db, err := m.handle()
	if err != nil {
		return 0, err
	}
	return db.GetSchemaVersion()
}

// loadEnvelope decodes namespace into env. A missing namespace reports
// found=false. A value that is not valid JSON is logged and also reported
// as missing, so a corrupt entry never blocks startup.
func (m *Manager) loadEnvelope(namespace string, env any) (bool, error) {
	raw, err := m.get(namespace)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, env); err != nil {
		m.logger.Warnw("Ignoring unreadable stored state", "namespace", namespace, "error", err)
		return false, nil
	}
	return true, nil
}

func (m *Manager) get(namespace string) ([]byte, error) {
	db, err := m.handle()
	if err != nil {
		return nil, err
	}
	raw, err := db.Get(namespace)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to read %s: %w", namespace, err)
	}
	return raw, err
}

func (m *Manager) saveJSON(namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", namespace, err)
	}

	db, err := m.handle()
	if err != nil {
		return err
	}
	if err := db.Put(namespace, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", namespace, err)
	}

	m.logger.Debugw("Saved state", "namespace", namespace, "bytes", len(data))
	return nil
}

func (m *Manager) handle() (*BoltDB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, fmt.Errorf("storage manager is closed")
	}
	return m.db, nil
}

// normalizeVisibility replaces missing lists, which older or hand-edited
// state may omit, with empty ones.
func normalizeVisibility(s visibility.State) visibility.State {
	if s.PinnedTools == nil {
		s.PinnedTools = []string{}
	}
	if s.HiddenTools == nil {
		s.HiddenTools = []string{}
	}
	if s.ToolOrder == nil {
		s.ToolOrder = []string{}
	}
	return s
}
