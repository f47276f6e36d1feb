package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cliconfig-go/internal/config"
	"cliconfig-go/internal/errmsg"
	"cliconfig-go/internal/logs"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli carries the state shared by every command of one invocation.
type cli struct {
	v   *viper.Viper
	cfg *config.Config
	// errOut receives the --events stream.
	errOut io.Writer
}

func main() {
	c := &cli{v: viper.New()}
	root := c.rootCmd()

	if failed, err := root.ExecuteC(); err != nil {
		c.reportError(os.Stderr, failed, err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cliconfig",
		Short:         "Manage the config files of your AI coding CLIs",
		Long:          "Pin, hide and order the AI coding CLIs you work with, and keep track of their config files.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.errOut = cmd.ErrOrStderr()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: <data-dir>/config.json)")
	flags.String("data-dir", "", "data directory (default: ~/.cliconfig)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("catalog", "", "extra tool catalog file (TOML, YAML or JSON)")
	flags.Bool("short-errors", false, "print errors without remediation hints")
	flags.Bool("events", false, "print every state change to stderr as a JSON line")

	for _, name := range []string{"config", "data-dir", "log-level", "catalog", "short-errors", "events"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		c.toolsCmd(),
		c.pathCmd(),
		c.errorCmd(),
		c.prefsCmd(),
		c.recentCmd(),
		c.stateCmd(),
		c.configCmd(),
		c.watchCmd(),
		c.updateCmd(),
	)
	return root
}

// configPath returns the config file in use: --config, else
// <data-dir>/config.json, else ~/.cliconfig/config.json.
func (c *cli) configPath() (string, error) {
	if path := c.v.GetString("config"); path != "" {
		return config.ExpandHome(path)
	}
	if dir := c.v.GetString("data-dir"); dir != "" {
		dir, err := config.ExpandHome(dir)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, config.ConfigFileName), nil
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file and applies .env, environment and flag
// overrides, in increasing priority.
func (c *cli) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	dataDir := c.v.GetString("data-dir")
	if dataDir == "" {
		if d, err := config.DefaultDataDir(); err == nil {
			dataDir = d
		}
	}
	if _, err := config.ApplyDotEnv(dataDir); err != nil {
		return nil, err
	}

	path, err := c.configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	if dir := c.v.GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if level := c.v.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if catalogFile := c.v.GetString("catalog"); catalogFile != "" {
		cfg.CatalogFile = catalogFile
	}
	if c.v.GetBool("short-errors") {
		cfg.Display.ShortErrors = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c.cfg = cfg
	return cfg, nil
}

// reportError prints err for humans and records it in the failure log.
func (c *cli) reportError(w io.Writer, failed *cobra.Command, err error) {
	short := c.v.GetBool("short-errors") || (c.cfg != nil && c.cfg.Display.ShortErrors)

	if short {
		fmt.Fprintln(w, "Error:", errmsg.FormatShort(err, ""))
	} else {
		fmt.Fprintln(w, "Error:", errmsg.Format(err, ""))
		if _, classified := errmsg.Classify(err); classified {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}

	if c.cfg != nil && failed != nil {
		_ = logs.LogFailure(c.cfg.DataDir, failed.CommandPath(), err)
	}
}
