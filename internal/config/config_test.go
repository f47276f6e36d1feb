package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultRecentFilesLimit, cfg.RecentFilesLimit)
	require.NotNil(t, cfg.Display)
	assert.Equal(t, 50, cfg.Display.PathMaxLength)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.EnableConsole)
	assert.False(t, cfg.Logging.EnableFile)
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir(), RecentFilesLimit: -1}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultRecentFilesLimit, cfg.RecentFilesLimit)
	assert.Equal(t, DefaultPathMaxLength, cfg.Display.PathMaxLength)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "cliconfig.log", cfg.Logging.Filename)
}

func TestValidate_DataDirDefaultsToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(home, AppDirName), cfg.DataDir)
}

func TestValidate_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{DataDir: "~/data", CatalogFile: "~/tools.toml"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(home, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, "tools.toml"), cfg.CatalogFile)
}

func TestValidate_LogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "INFO", "Warn", "error"} {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), level)
	}

	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Logging.Level = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoadFromFile_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPathMaxLength, cfg.Display.PathMaxLength)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_dir": "`+filepath.ToSlash(dir)+`", "recent_files_limit": 4}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.RecentFilesLimit)
	assert.Equal(t, DefaultPathMaxLength, cfg.Display.PathMaxLength)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.CatalogFile = filepath.Join(dir, "tools.yaml")
	cfg.Display.ShortErrors = true
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.CatalogFile, loaded.CatalogFile)
	assert.True(t, loaded.Display.ShortErrors)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Display.PathMaxLength = 1
	clone.Logging.Level = "debug"

	assert.Equal(t, DefaultPathMaxLength, cfg.Display.PathMaxLength)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nCLICONFIG_THEME=dark\nQUOTED=\"a b\"\n"), 0644))

	env, err := LoadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", env["CLICONFIG_THEME"])
	assert.Equal(t, "a b", env["QUOTED"])

	env, err = LoadDotEnv(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestApplyDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CLICONFIG_TEST_SET=from-file\nCLICONFIG_TEST_UNSET=from-file\n"), 0644))

	t.Setenv("CLICONFIG_TEST_SET", "from-env")
	t.Setenv("CLICONFIG_TEST_UNSET", "")
	require.NoError(t, os.Unsetenv("CLICONFIG_TEST_UNSET"))

	applied, err := ApplyDotEnv(dir)
	require.NoError(t, err)
	assert.Contains(t, applied, filepath.Join(dir, ".env"))
	assert.Equal(t, "from-env", os.Getenv("CLICONFIG_TEST_SET"))
	assert.Equal(t, "from-file", os.Getenv("CLICONFIG_TEST_UNSET"))
}

func TestValidate_Update(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}
	require.NoError(t, cfg.Validate())
	require.NotNil(t, cfg.Update)
	assert.Empty(t, cfg.Update.Repo)
	assert.Equal(t, DefaultUpdateAPIURL, cfg.Update.APIURL)

	cfg.Update = &UpdateConfig{Repo: " /acme/cliconfig/ ", APIURL: "https://ghe.example.com/api/v3/"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "acme/cliconfig", cfg.Update.Repo)
	assert.Equal(t, "https://ghe.example.com/api/v3", cfg.Update.APIURL)

	cfg.Update.Repo = "just-a-name"
	assert.Error(t, cfg.Validate())
}
