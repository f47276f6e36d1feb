package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/catalog"
	"cliconfig-go/internal/pathfmt"
	"cliconfig-go/internal/prefs"
)

func (c *cli) recentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Recently opened config files",
	}
	cmd.AddCommand(
		c.recentListCmd(),
		c.recentAddCmd(),
		&cobra.Command{
			Use:     "rm <tool-id> <config-id>",
			Aliases: []string{"remove"},
			Short:   "Forget one recent file",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					return a.recent.Remove(args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget all recent files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					if err := a.recent.Clear(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Recent files cleared.")
					return nil
				})
			},
		},
	)
	return cmd
}

func (c *cli) recentListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent files, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				files := a.recent.List()
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(files)
				}
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recent files.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TOOL\tCONFIG\tPATH\tOPENED")
				for _, f := range files {
					opened := time.UnixMilli(f.Timestamp).Format("2006-01-02 15:04")
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ToolName, f.ConfigLabel,
						pathfmt.TruncatePath(f.Path, a.cfg.Display.PathMaxLength), opened)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *cli) recentAddCmd() *cobra.Command {
	var label, configID string

	cmd := &cobra.Command{
		Use:   "add <tool-id> <path>",
		Short: "Record that a tool's config file was opened",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				entry, ok := a.findTool(args[0])
				if !ok {
					return fmt.Errorf("unknown tool %q", args[0])
				}

				file := prefs.RecentFile{
					ToolID:      entry.ID,
					ToolName:    entry.Name,
					ConfigID:    configID,
					ConfigLabel: label,
					Path:        args[1],
				}
				a.describeRecent(&file)

				added, err := a.recent.Add(file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s\n", added.ToolName, added.ConfigLabel)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "config label (default: the suggested config's label or the file name)")
	cmd.Flags().StringVar(&configID, "config-id", "", "config id (default: the path)")
	return cmd
}

// describeRecent fills in a missing config id and label from the config
// file attached to the tool with the same path, then from the catalog's
// suggested config, then from the file name.
func (a *app) describeRecent(file *prefs.RecentFile) {
	for _, f := range a.prefs.ToolConfigFiles(file.ToolID) {
		if f.Path != file.Path {
			continue
		}
		if file.ConfigID == "" {
			file.ConfigID = f.ID
		}
		if file.ConfigLabel == "" {
			file.ConfigLabel = f.Label
		}
		return
	}

	if file.ConfigID == "" {
		file.ConfigID = file.Path
	}
	if file.ConfigLabel != "" {
		return
	}
	if tool, ok := catalog.Find(a.catalog, file.ToolID); ok {
		for _, sc := range tool.SuggestedConfigs {
			if sc.Path == file.Path {
				file.ConfigLabel = sc.Label
				return
			}
		}
	}
	if name, ok := pathfmt.FileName(file.Path); ok {
		file.ConfigLabel = name
		return
	}
	file.ConfigLabel = file.Path
}
