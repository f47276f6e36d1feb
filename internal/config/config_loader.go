package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Loader owns the config file: it loads it, rewrites it atomically and
// reloads it when another process edits it.
type Loader struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	watcher    *fsnotify.Watcher
	selfWrites int
	onChange   func(*Config) error
	logger     *zap.Logger
	stopOnce   sync.Once
	stopChan   chan struct{}
}

// NewLoader creates a loader for configPath. Watching starts with StartWatching.
func NewLoader(configPath string, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Loader{
		configPath: configPath,
		watcher:    watcher,
		logger:     logger.Named("config"),
		stopChan:   make(chan struct{}),
	}, nil
}

// Load reads the config file, falling back to defaults when it does not exist.
func (l *Loader) Load() (*Config, error) {
	cfg, err := LoadFromFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg, nil
}

// StartWatching reloads the config whenever the file changes on disk and
// passes the new value to onChange. A failing onChange keeps the old config.
//
// The parent directory is watched rather than the file itself so that
// editors which save via rename are still noticed.
func (l *Loader) StartWatching(onChange func(*Config) error) error {
	l.mu.Lock()
	l.onChange = onChange
	l.mu.Unlock()

	dir := filepath.Dir(l.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := l.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	go l.watchLoop()

	l.logger.Info("Started watching configuration file", zap.String("path", l.configPath))
	return nil
}

func (l *Loader) watchLoop() {
	target := filepath.Clean(l.configPath)
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				l.handleFileChange()
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("File watcher error", zap.Error(err))

		case <-l.stopChan:
			return
		}
	}
}

func (l *Loader) handleFileChange() {
	if l.ShouldSkipReload() {
		l.logger.Debug("Skipping reload of our own write")
		return
	}

	cfg, err := LoadFromFile(l.configPath)
	if err != nil {
		l.logger.Error("Failed to reload configuration",
			zap.String("path", l.configPath),
			zap.Error(err))
		return
	}

	l.mu.Lock()
	previous := l.config
	l.config = cfg
	onChange := l.onChange
	l.mu.Unlock()

	if onChange != nil {
		if err := onChange(cfg); err != nil {
			l.logger.Error("Failed to apply configuration changes", zap.Error(err))
			l.mu.Lock()
			l.config = previous
			l.mu.Unlock()
			return
		}
	}

	l.logger.Info("Configuration reloaded", zap.String("path", l.configPath))
}

// UpdateConfigAtomic applies updateFn to a copy of the current config,
// validates the result and replaces the file via temp file + rename.
// The in-memory config only changes when the file was written.
func (l *Loader) UpdateConfigAtomic(updateFn func(*Config) (*Config, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.config
	if current == nil {
		current = DefaultConfig()
	}

	updated, err := updateFn(current.Clone())
	if err != nil {
		return fmt.Errorf("update function failed: %w", err)
	}
	if updated == nil {
		return fmt.Errorf("update function returned no config")
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tempPath := l.configPath + ".tmp"
	if err := SaveToFile(updated, tempPath); err != nil {
		return fmt.Errorf("failed to write temp config: %w", err)
	}

	// The rename produces one Create event for the config path.
	l.selfWrites++
	if err := os.Rename(tempPath, l.configPath); err != nil {
		l.selfWrites--
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	l.config = updated
	l.logger.Info("Configuration updated", zap.String("path", l.configPath))
	return nil
}

// ShouldSkipReload reports whether the next change notification is our own
// write, consuming that marker.
func (l *Loader) ShouldSkipReload() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.selfWrites > 0 {
		l.selfWrites--
		return true
	}
	return false
}

// GetConfig returns the current configuration.
func (l *Loader) GetConfig() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config
}

// Stop stops the watcher. It is safe to call more than once.
func (l *Loader) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopChan)
		if closeErr := l.watcher.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close watcher: %w", closeErr)
			return
		}
		l.logger.Debug("Stopped configuration file watcher")
	})
	return err
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Display != nil {
		display := *c.Display
		out.Display = &display
	}
	if c.Logging != nil {
		logging := *c.Logging
		out.Logging = &logging
	}
	if c.Update != nil {
		upd := *c.Update
		out.Update = &upd
	}
	return &out
}
