package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppDirName is the per-user directory holding the config file, database and logs
	AppDirName = ".cliconfig"

	// ConfigFileName is the default config file name inside the data directory
	ConfigFileName = "config.json"
)

// Config represents the main configuration structure
type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data-dir"`

	// Optional user catalog of extra tools (TOML, YAML or JSON)
	CatalogFile string `json:"catalog_file,omitempty" mapstructure:"catalog-file"`

	// Number of recently opened config files to remember
	RecentFilesLimit int `json:"recent_files_limit" mapstructure:"recent-files-limit"`

	// Display settings
	Display *DisplayConfig `json:"display,omitempty" mapstructure:"display"`

	// Logging configuration
	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`

	// Self-update settings
	Update *UpdateConfig `json:"update,omitempty" mapstructure:"update"`
}

// UpdateConfig says where "cliconfig update" looks for releases
type UpdateConfig struct {
	Repo   string `json:"repo,omitempty" mapstructure:"repo"`       // GitHub "owner/name"; empty disables update checks
	APIURL string `json:"api_url,omitempty" mapstructure:"api-url"` // GitHub API base URL
}

// DefaultUpdateAPIURL is the public GitHub API
const DefaultUpdateAPIURL = "https://api.github.com"

// DisplayConfig holds presentation settings used when rendering tool lists and paths
type DisplayConfig struct {
	PathMaxLength int  `json:"path_max_length" mapstructure:"path-max-length"` // Max runes for displayed paths
	ShortErrors   bool `json:"short_errors" mapstructure:"short-errors"`       // Use compact error messages
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"` // Custom log directory
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`         // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"`   // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`           // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json-format"`
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// DefaultLogConfig returns the default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:         "info",
		EnableFile:    false,
		EnableConsole: true,
		Filename:      "cliconfig.log",
		MaxSize:       10, // 10MB
		MaxBackups:    5,
		MaxAge:        30, // days
		Compress:      true,
		JSONFormat:    false,
	}
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		DataDir:          "", // Will be set to ~/.cliconfig by Validate
		RecentFilesLimit: DefaultRecentFilesLimit,
		Display: &DisplayConfig{
			PathMaxLength: DefaultPathMaxLength,
		},
		Logging: DefaultLogConfig(),
		Update:  &UpdateConfig{APIURL: DefaultUpdateAPIURL},
	}
}

// DefaultDataDir returns ~/.cliconfig
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// DefaultConfigPath returns ~/.cliconfig/config.json
func DefaultConfigPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Validate fills in defaults and rejects invalid values
func (c *Config) Validate() error {
	if c.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	dataDir, err := ExpandHome(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = dataDir

	if c.CatalogFile != "" {
		catalog, err := ExpandHome(c.CatalogFile)
		if err != nil {
			return err
		}
		c.CatalogFile = catalog
	}

	if c.RecentFilesLimit <= 0 {
		c.RecentFilesLimit = DefaultRecentFilesLimit
	}

	if c.Display == nil {
		c.Display = &DisplayConfig{}
	}
	if c.Display.PathMaxLength <= 0 {
		c.Display.PathMaxLength = DefaultPathMaxLength
	}

	if c.Update == nil {
		c.Update = &UpdateConfig{}
	}
	c.Update.Repo = strings.Trim(strings.TrimSpace(c.Update.Repo), "/")
	if c.Update.Repo != "" && strings.Count(c.Update.Repo, "/") != 1 {
		return fmt.Errorf("invalid update repo: %s (must be owner/name)", c.Update.Repo)
	}
	if c.Update.APIURL == "" {
		c.Update.APIURL = DefaultUpdateAPIURL
	}
	c.Update.APIURL = strings.TrimRight(c.Update.APIURL, "/")

	if c.Logging == nil {
		c.Logging = DefaultLogConfig()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be one of: trace, debug, info, warn, error)", c.Logging.Level)
	}
	if c.Logging.Filename == "" {
		c.Logging.Filename = "cliconfig.log"
	}
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAge < 0 {
		c.Logging.MaxAge = 0
	}

	return nil
}

// LoadFromFile reads and validates a config file. A missing file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToFile writes cfg as indented JSON, creating the parent directory
func SaveToFile(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
