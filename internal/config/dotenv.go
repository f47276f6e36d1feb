package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of environment variables that override config keys
const EnvPrefix = "CLICONFIG"

// LoadDotEnv reads KEY=VALUE pairs from a .env file.
// A missing file yields an empty map, not an error.
func LoadDotEnv(envPath string) (map[string]string, error) {
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return map[string]string{}, nil
	}

	env, err := godotenv.Read(envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
	}
	return env, nil
}

// ApplyDotEnv exports variables from <dataDir>/.env and then ./.env into the
// process environment. Variables that are already set are left untouched, so
// the real environment wins over either file and the data directory file wins
// over the working directory one. It returns the files that were applied.
func ApplyDotEnv(dataDir string) ([]string, error) {
	candidates := []string{".env"}
	if dataDir != "" {
		candidates = []string{filepath.Join(dataDir, ".env"), ".env"}
	}

	var applied []string
	seen := map[string]bool{}
	for _, path := range candidates {
		abs, err := filepath.Abs(path)
		if err == nil {
			if seen[abs] {
				continue
			}
			seen[abs] = true
		}

		env, err := LoadDotEnv(path)
		if err != nil {
			return applied, err
		}
		if len(env) == 0 {
			continue
		}

		for key, value := range env {
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
			if err := os.Setenv(key, value); err != nil {
				return applied, fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
		applied = append(applied, path)
	}

	return applied, nil
}
