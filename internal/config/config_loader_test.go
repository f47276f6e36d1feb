package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func newTestLoader(t *testing.T, cfg *Config) (*Loader, string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.json")
	if cfg != nil {
		writeTestConfig(t, configPath, cfg)
	}

	loader, err := NewLoader(configPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Stop() })

	_, err = loader.Load()
	require.NoError(t, err)
	return loader, configPath
}

func TestNewLoader(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	loader, err := NewLoader(configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, configPath, loader.configPath)
	assert.NotNil(t, loader.watcher)
	assert.NotNil(t, loader.logger)

	assert.NoError(t, loader.Stop())
	assert.NoError(t, loader.Stop(), "second Stop should be a no-op")
}

func TestLoader_Load(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Display.PathMaxLength = 72

	loader, _ := newTestLoader(t, cfg)

	got := loader.GetConfig()
	require.NotNil(t, got)
	assert.Equal(t, 72, got.Display.PathMaxLength)
	assert.Equal(t, cfg.DataDir, got.DataDir)
}

func TestLoader_LoadMissingFileUsesDefaults(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	got := loader.GetConfig()
	require.NotNil(t, got)
	assert.Equal(t, DefaultPathMaxLength, got.Display.PathMaxLength)
	assert.Equal(t, DefaultRecentFilesLimit, got.RecentFilesLimit)
}

func TestLoader_UpdateConfigAtomic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, configPath := newTestLoader(t, cfg)

	err := loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
		cfg.RecentFilesLimit = 25
		return cfg, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 25, loader.GetConfig().RecentFilesLimit)

	fileData, err := os.ReadFile(configPath)
	require.NoError(t, err)
	var fileCfg Config
	require.NoError(t, json.Unmarshal(fileData, &fileCfg))
	assert.Equal(t, 25, fileCfg.RecentFilesLimit)

	_, err = os.Stat(configPath + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be cleaned up")
}

func TestLoader_UpdateConfigAtomic_DoesNotMutateCurrent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, _ := newTestLoader(t, cfg)
	before := loader.GetConfig()

	err := loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
		cfg.Display.PathMaxLength = 80
		return cfg, nil
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultPathMaxLength, before.Display.PathMaxLength)
	assert.Equal(t, 80, loader.GetConfig().Display.PathMaxLength)
}

func TestLoader_UpdateConfigAtomic_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, _ := newTestLoader(t, cfg)

	err := loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
		cfg.Logging.Level = "verbose"
		return cfg, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Equal(t, "info", loader.GetConfig().Logging.Level)
}

func TestLoader_UpdateConfigAtomic_UpdateFunctionError(t *testing.T) {
	loader, _ := newTestLoader(t, nil)

	err := loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
		return nil, assert.AnError
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update function failed")
}

func TestLoader_UpdateConfigAtomic_WriteFailureKeepsConfig(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	readOnlyDir := t.TempDir()
	require.NoError(t, os.Chmod(readOnlyDir, 0555))
	t.Cleanup(func() { _ = os.Chmod(readOnlyDir, 0755) })

	loader, err := NewLoader(filepath.Join(readOnlyDir, "config.json"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Stop() })

	initial := DefaultConfig()
	initial.RecentFilesLimit = 3
	loader.config = initial

	err = loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
		cfg.RecentFilesLimit = 30
		return cfg, nil
	})
	assert.Error(t, err)
	assert.Equal(t, 3, loader.GetConfig().RecentFilesLimit)
}

func TestLoader_ConcurrentUpdates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, _ := newTestLoader(t, cfg)

	limits := []int{11, 12, 13, 14, 15}
	var wg sync.WaitGroup
	for _, limit := range limits {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
				cfg.RecentFilesLimit = n
				return cfg, nil
			})
			assert.NoError(t, err)
		}(limit)
	}
	wg.Wait()

	assert.Contains(t, limits, loader.GetConfig().RecentFilesLimit)
}

func TestLoader_FileWatching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, configPath := newTestLoader(t, cfg)

	reloaded := make(chan *Config, 4)
	require.NoError(t, loader.StartWatching(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	}))

	modified := DefaultConfig()
	modified.DataDir = cfg.DataDir
	modified.Display.PathMaxLength = 99
	writeTestConfig(t, configPath, modified)

	select {
	case got := <-reloaded:
		assert.Equal(t, 99, got.Display.PathMaxLength)
	case <-time.After(2 * time.Second):
		t.Fatal("onChange was not called")
	}
	assert.Equal(t, 99, loader.GetConfig().Display.PathMaxLength)
}

func TestLoader_FailedOnChangeKeepsPreviousConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, configPath := newTestLoader(t, cfg)

	called := make(chan struct{}, 4)
	require.NoError(t, loader.StartWatching(func(*Config) error {
		called <- struct{}{}
		return assert.AnError
	}))

	modified := DefaultConfig()
	modified.DataDir = cfg.DataDir
	modified.RecentFilesLimit = 42
	writeTestConfig(t, configPath, modified)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange was not called")
	}
	// rollback happens right after onChange returns
	assert.Eventually(t, func() bool {
		return loader.GetConfig().RecentFilesLimit == DefaultRecentFilesLimit
	}, time.Second, 10*time.Millisecond)
}

func TestLoader_SkipsOwnWrites(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	loader, _ := newTestLoader(t, cfg)

	var mu sync.Mutex
	changes := 0
	require.NoError(t, loader.StartWatching(func(*Config) error {
		mu.Lock()
		changes++
		mu.Unlock()
		return nil
	}))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, loader.UpdateConfigAtomic(func(cfg *Config) (*Config, error) {
		cfg.RecentFilesLimit = 7
		return cfg, nil
	}))
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, changes, "onChange should not run for our own writes")
	assert.Equal(t, 7, loader.GetConfig().RecentFilesLimit)
}
