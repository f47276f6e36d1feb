package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/catalog"
	"cliconfig-go/internal/pathfmt"
	"cliconfig-go/internal/prefs"
)

func (c *cli) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Theme, layout, settings, custom tools and their config files",
	}
	cmd.AddCommand(
		c.prefsThemeCmd(),
		c.prefsSidebarCmd(),
		c.prefsSidebarWidthCmd(),
		c.prefsExpandedCmd(),
		c.prefsCustomCmd(),
		c.prefsConfigFileCmd(),
		c.prefsSettingsCmd(),
	)
	return cmd
}

func (c *cli) prefsThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|system|toggle]",
		Short:     "Show or change the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "system", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				switch {
				case len(args) == 0:
				case args[0] == "toggle":
					if _, err := a.prefs.ToggleTheme(); err != nil {
						return err
					}
				default:
					theme, err := prefs.ParseTheme(args[0])
					if err != nil {
						return err
					}
					if err := a.prefs.SetTheme(theme); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Theme:", a.prefs.Theme())
				return nil
			})
		},
	}
}

func (c *cli) prefsSidebarCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sidebar [collapsed|expanded|toggle]",
		Short:     "Show or change whether the sidebar starts collapsed",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"collapsed", "expanded", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				if len(args) == 1 {
					var collapsed bool
					switch args[0] {
					case "collapsed":
						collapsed = true
					case "expanded":
						collapsed = false
					case "toggle":
						collapsed = !a.prefs.SidebarCollapsed()
					default:
						return fmt.Errorf("unknown sidebar state %q (want collapsed, expanded or toggle)", args[0])
					}
					if err := a.prefs.SetSidebarCollapsed(collapsed); err != nil {
						return err
					}
				}

				state := "expanded"
				if a.prefs.SidebarCollapsed() {
					state = "collapsed"
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Sidebar:", state)
				return nil
			})
		},
	}
}

func (c *cli) prefsSidebarWidthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sidebar-width [pixels]",
		Short: "Show or change the sidebar width",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				if len(args) == 1 {
					width, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid width %q: %w", args[0], err)
					}
					if _, err := a.prefs.SetSidebarWidth(width); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sidebar width: %dpx\n", a.prefs.SidebarWidth())
				return nil
			})
		},
	}
}

func (c *cli) prefsExpandedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expanded [toggle <id>|all|none]",
		Short: "Show or change which tools are expanded in the sidebar",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				out := cmd.OutOrStdout()
				switch {
				case len(args) == 0:
				case args[0] == "toggle" && len(args) == 2:
					if err := a.requireTools(args[1:]); err != nil {
						return err
					}
					expanded, err := a.prefs.ToggleToolExpanded(args[1])
					if err != nil {
						return err
					}
					state := "collapsed"
					if expanded {
						state = "expanded"
					}
					fmt.Fprintf(out, "%s %s\n", args[1], state)
					return nil
				case args[0] == "all" && len(args) == 1:
					if err := a.prefs.ExpandAllTools(toolIDs(a.tools())); err != nil {
						return err
					}
				case args[0] == "none" && len(args) == 1:
					if err := a.prefs.CollapseAllTools(); err != nil {
						return err
					}
				default:
					return fmt.Errorf("unknown arguments %q (want toggle <id>, all or none)", strings.Join(args, " "))
				}

				expanded := a.prefs.ExpandedTools()
				if len(expanded) == 0 {
					fmt.Fprintln(out, "No tools expanded.")
					return nil
				}
				for _, id := range expanded {
					fmt.Fprintln(out, id)
				}
				return nil
			})
		},
	}
}

func toolIDs(tools []toolEntry) []string {
	ids := make([]string, 0, len(tools))
	for _, t := range tools {
		ids = append(ids, t.ID)
	}
	return ids
}

func (c *cli) prefsCustomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage user-defined tools",
	}
	cmd.AddCommand(
		c.customListCmd(),
		c.customAddCmd(),
		c.customUpdateCmd(),
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"remove"},
			Short:   "Remove a custom tool",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					if err := a.prefs.RemoveCustomTool(args[0]); err != nil {
						return err
					}
					// Forget the removed id so it does not linger in pins or ordering.
					a.visibility.UnpinTool(args[0])
					a.visibility.ShowTool(args[0])
					fmt.Fprintln(cmd.OutOrStdout(), "Removed", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) customListCmd() *cobra.Command {
	var (
		asJSON bool
		filter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List custom tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				tools := a.prefs.FilterCustomTools(filter)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(tools)
				}
				if len(tools) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No custom tools.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tFORMAT\tPATH")
				for _, t := range tools {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.ConfigFormat,
						pathfmt.TruncatePath(t.ConfigPath, a.cfg.Display.PathMaxLength))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only tools whose name contains this text")
	return cmd
}

type customToolFlags struct {
	name, path, format, description, icon string
}

func (f *customToolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.path, "path", "", "config file path")
	cmd.Flags().StringVar(&f.format, "format", "", "config format: json, yaml, toml, ini or md (default: from the file extension)")
	cmd.Flags().StringVar(&f.description, "description", "", "short description")
	cmd.Flags().StringVar(&f.icon, "icon", "", "icon name")
}

func (c *cli) customAddCmd() *cobra.Command {
	var f customToolFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a custom tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := prefs.CustomTool{
				Name:        f.name,
				ConfigPath:  f.path,
				Description: f.description,
				Icon:        f.icon,
			}
			if f.format != "" {
				format, err := catalog.ParseFormat(f.format)
				if err != nil {
					return err
				}
				tool.ConfigFormat = format
			}

			return c.withApp(func(a *app) error {
				added, err := a.prefs.AddCustomTool(tool)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Name, added.ID)
				return nil
			})
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (c *cli) customUpdateCmd() *cobra.Command {
	var f customToolFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a custom tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd prefs.CustomToolUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				upd.Name = &f.name
			}
			if flags.Changed("path") {
				upd.ConfigPath = &f.path
			}
			if flags.Changed("format") {
				format, err := catalog.ParseFormat(f.format)
				if err != nil {
					return err
				}
				upd.ConfigFormat = &format
			}
			if flags.Changed("description") {
				upd.Description = &f.description
			}
			if flags.Changed("icon") {
				upd.Icon = &f.icon
			}

			return c.withApp(func(a *app) error {
				updated, err := a.prefs.UpdateCustomTool(args[0], upd)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.Name, updated.ID)
				return nil
			})
		},
	}

	f.register(cmd)
	return cmd
}
