package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cliconfig-go/internal/config"
	"cliconfig-go/internal/logs"
)

// configSetters maps the keys accepted by "config set" to how they apply.
var configSetters = map[string]func(cfg *config.Config, value string) error{
	"data-dir": func(cfg *config.Config, value string) error {
		cfg.DataDir = value
		return nil
	},
	"catalog-file": func(cfg *config.Config, value string) error {
		cfg.CatalogFile = value
		return nil
	},
	"recent-files-limit": func(cfg *config.Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("recent-files-limit must be a positive number, got %q", value)
		}
		cfg.RecentFilesLimit = n
		return nil
	},
	"path-max-length": func(cfg *config.Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("path-max-length must be a positive number, got %q", value)
		}
		cfg.Display.PathMaxLength = n
		return nil
	},
	"short-errors": func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("short-errors must be true or false, got %q", value)
		}
		cfg.Display.ShortErrors = b
		return nil
	},
	"log-level": func(cfg *config.Config, value string) error {
		cfg.Logging.Level = value
		return nil
	},
	"log-file": func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log-file must be true or false, got %q", value)
		}
		cfg.Logging.EnableFile = b
		return nil
	},
	"update-repo": func(cfg *config.Config, value string) error {
		cfg.Update.Repo = value
		return nil
	},
	"update-api-url": func(cfg *config.Config, value string) error {
		cfg.Update.APIURL = value
		return nil
	},
	"log-json": func(cfg *config.Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("log-json must be true or false, got %q", value)
		}
		cfg.Logging.JSONFormat = b
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and edit the config file",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := c.configPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			},
		},
		c.configSetCmd(),
	)
	return cmd
}

func (c *cli) configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting in the config file",
		Long:      "Change one setting in the config file.\n\nKeys: " + strings.Join(configKeys(), ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: configKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			set, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(configKeys(), ", "))
			}

			loader, err := c.newLoader()
			if err != nil {
				return err
			}
			defer loader.Stop()

			if err := loader.UpdateConfigAtomic(func(cfg *config.Config) (*config.Config, error) {
				return cfg, set(cfg, value)
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
}

// newLoader opens the config file for editing or watching. The file is used
// as written: flag and environment overrides are not applied.
func (c *cli) newLoader() (*config.Loader, error) {
	path, err := c.configPath()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if cfg, err := c.loadConfig(); err == nil {
		if l, err := logs.SetupLogger(cfg.Logging, cfg.DataDir); err == nil {
			logger = l
		}
	}

	loader, err := config.NewLoader(path, logger)
	if err != nil {
		return nil, err
	}
	if _, err := loader.Load(); err != nil {
		loader.Stop()
		return nil, err
	}
	return loader, nil
}
