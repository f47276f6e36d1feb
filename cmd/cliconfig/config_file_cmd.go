package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/catalog"
	"cliconfig-go/internal/pathfmt"
	"cliconfig-go/internal/prefs"
)

func (c *cli) prefsConfigFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config-file",
		Aliases: []string{"config-files"},
		Short:   "Manage extra config files attached to a tool",
	}
	cmd.AddCommand(
		c.configFileListCmd(),
		c.configFileAddCmd(),
		c.configFileUpdateCmd(),
		&cobra.Command{
			Use:     "rm <tool-id> <config-id>",
			Aliases: []string{"remove"},
			Short:   "Detach a config file from a tool",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					if err := a.prefs.RemoveConfigFile(args[0], args[1]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Removed", args[1])
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) configFileListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <tool-id>",
		Short: "List the config files attached to a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				files := a.prefs.ToolConfigFiles(args[0])
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(files)
				}
				if !a.prefs.HasConfigFiles(args[0]) {
					fmt.Fprintf(cmd.OutOrStdout(), "No config files attached to %s.\n", args[0])
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tLABEL\tFORMAT\tPATH\tJSON PATH")
				for _, f := range files {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Label, f.Format,
						pathfmt.TruncatePath(f.Path, a.cfg.Display.PathMaxLength), f.JSONPath)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

type configFileFlags struct {
	label, path, format, icon, jsonPath string
}

func (f *configFileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.label, "label", "", "display label")
	cmd.Flags().StringVar(&f.path, "path", "", "config file path")
	cmd.Flags().StringVar(&f.format, "format", "", "config format: json, yaml, toml, ini or md (default: from the file extension)")
	cmd.Flags().StringVar(&f.icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&f.jsonPath, "json-path", "", "nested object to edit, e.g. mcpServers")
}

func (c *cli) configFileAddCmd() *cobra.Command {
	var f configFileFlags

	cmd := &cobra.Command{
		Use:   "add <tool-id>",
		Short: "Attach a config file to a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := prefs.ConfigFile{Label: f.label, Path: f.path, Icon: f.icon, JSONPath: f.jsonPath}
			if f.format != "" {
				format, err := catalog.ParseFormat(f.format)
				if err != nil {
					return err
				}
				file.Format = format
			}

			return c.withApp(func(a *app) error {
				if err := a.requireTools(args); err != nil {
					return err
				}
				added, err := a.prefs.AddConfigFile(args[0], file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Label, added.ID)
				return nil
			})
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (c *cli) configFileUpdateCmd() *cobra.Command {
	var f configFileFlags

	cmd := &cobra.Command{
		Use:   "update <tool-id> <config-id>",
		Short: "Change fields of an attached config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd prefs.ConfigFileUpdate
			flags := cmd.Flags()
			if flags.Changed("label") {
				upd.Label = &f.label
			}
			if flags.Changed("path") {
				upd.Path = &f.path
			}
			if flags.Changed("format") {
				format, err := catalog.ParseFormat(f.format)
				if err != nil {
					return err
				}
				upd.Format = &format
			}
			if flags.Changed("icon") {
				upd.Icon = &f.icon
			}
			if flags.Changed("json-path") {
				upd.JSONPath = &f.jsonPath
			}

			return c.withApp(func(a *app) error {
				updated, err := a.prefs.UpdateConfigFile(args[0], args[1], upd)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.Label, updated.ID)
				return nil
			})
		},
	}

	f.register(cmd)
	return cmd
}

func (c *cli) prefsSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Editor, backup and behavior settings",
	}

	show := &cobra.Command{
		Use:   "show [key]",
		Short: "Print all settings as JSON, or the value of one key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				st := a.prefs.Settings()
				if len(args) == 1 {
					v, err := st.Get(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), v)
					return nil
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			})
		},
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting",
		Args:      cobra.ExactArgs(2),
		ValidArgs: prefs.SettingKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				st, err := a.prefs.UpdateSettings(func(st *prefs.Settings) error {
					return st.Set(args[0], args[1])
				})
				if err != nil {
					return err
				}
				v, _ := st.Get(args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v)
				return nil
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				if err := a.prefs.ResetSettings(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults.")
				return nil
			})
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List the setting keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, k := range prefs.SettingKeys() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
		},
	}

	cmd.AddCommand(show, set, reset, keys)
	return cmd
}
