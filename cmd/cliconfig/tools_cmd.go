package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/catalog"
	"cliconfig-go/internal/index"
	"cliconfig-go/internal/pathfmt"
	"cliconfig-go/internal/visibility"
)

func (c *cli) toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List, pin, hide and order tools",
	}

	cmd.AddCommand(
		c.toolsListCmd(),
		c.toolsSearchCmd(),
		c.toolMutationCmd("pin", "Pin tools to the top of the list", true, (*visibility.Store).PinTool),
		c.toolMutationCmd("unpin", "Unpin tools", false, (*visibility.Store).UnpinTool),
		c.toolMutationCmd("toggle-pin", "Pin or unpin tools", true, (*visibility.Store).TogglePinTool),
		c.toolMutationCmd("hide", "Hide tools from the list", true, (*visibility.Store).HideTool),
		c.toolMutationCmd("show", "Show hidden tools again", false, (*visibility.Store).ShowTool),
		c.toolMutationCmd("toggle-hide", "Hide or show tools", true, (*visibility.Store).ToggleHideTool),
		c.toolsMoveCmd("up", (*visibility.Store).MoveToolUp),
		c.toolsMoveCmd("down", (*visibility.Store).MoveToolDown),
		c.toolsReorderCmd(),
		c.toolsResetCmd(),
		c.toolsToggleHiddenCmd(),
	)
	return cmd
}

func (c *cli) toolsListCmd() *cobra.Command {
	var (
		asJSON bool
		all    bool
		filter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the tool list as pinned, visible and hidden sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				tools := catalog.Filter(a.tools(), filter)
				sorted := visibility.GetSortedTools(a.visibility, tools)
				showHidden := all || a.visibility.ShowHiddenTools()

				if asJSON {
					if !showHidden {
						sorted.Hidden = []toolEntry{}
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(map[string][]toolEntry{
						"pinned":  sorted.Pinned,
						"visible": sorted.Visible,
						"hidden":  sorted.Hidden,
					})
				}

				maxLen := a.cfg.Display.PathMaxLength
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				printSection(w, "PINNED", sorted.Pinned, maxLen)
				printSection(w, "TOOLS", sorted.Visible, maxLen)
				if showHidden {
					printSection(w, "HIDDEN", sorted.Hidden, maxLen)
				} else if n := len(sorted.Hidden); n > 0 {
					fmt.Fprintf(w, "(%d hidden)\n", n)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sections as JSON")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden tools")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only tools whose name contains this text")
	return cmd
}

func printSection(w io.Writer, title string, tools []toolEntry, maxLen int) {
	if len(tools) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, t := range tools {
		path := ""
		if len(t.Paths) > 0 {
			path = pathfmt.TruncatePath(t.Paths[0], maxLen)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", t.ID, t.Name, path)
	}
}

func (c *cli) toolsSearchCmd() *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over tool names, descriptions and config paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				idx, err := index.NewManager(a.logger)
				if err != nil {
					return err
				}
				defer idx.Close()

				searchHidden := all || a.visibility.ShowHiddenTools()
				tools := a.tools()
				docs := make([]index.Document, 0, len(tools))
				for _, t := range tools {
					if !searchHidden && a.visibility.IsHidden(t.ID) {
						continue
					}
					docs = append(docs, index.Document{
						ID:          t.ID,
						Name:        t.Name,
						Description: t.Description,
						Kind:        t.Kind,
						Paths:       t.Paths,
					})
				}
				if err := idx.BatchIndexTools(docs); err != nil {
					return err
				}

				results, err := idx.SearchTools(strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					count, err := idx.GetDocumentCount()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "No matches among %d tools.\n", count)
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tKIND\tSCORE")
				for _, r := range results {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", r.ID, r.Name, r.Kind, r.Score)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden tools")
	return cmd
}

// toolMutationCmd builds a command applying mutate to each id argument.
// When known is set, ids must name a tool in the list; unpin and show also
// accept stale ids so they can be cleaned up.
func (c *cli) toolMutationCmd(use, short string, known bool, mutate func(*visibility.Store, string)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tool-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				if known {
					if err := a.requireTools(args); err != nil {
						return err
					}
				}
				for _, id := range args {
					mutate(a.visibility, id)
				}
				printToolStatus(cmd.OutOrStdout(), a.visibility, args)
				return nil
			})
		},
	}
}

func (c *cli) toolsMoveCmd(direction string, move func(*visibility.Store, string)) *cobra.Command {
	return &cobra.Command{
		Use:   direction + " <tool-id>",
		Short: fmt.Sprintf("Move a tool one place %s in the list", direction),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				id := args[0]
				if err := a.requireTools(args); err != nil {
					return err
				}
				// Only unpinned, visible tools have a place in the ordered list.
				switch {
				case a.visibility.IsHidden(id):
					return fmt.Errorf("cannot move %s: it is hidden, show it first", id)
				case a.visibility.IsPinned(id):
					return fmt.Errorf("cannot move %s: pinned tools stay in pin order, unpin it first", id)
				}
				a.seedToolOrder(id)
				move(a.visibility, id)

				order := a.visibility.Snapshot().ToolOrder
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now at position %d\n", id, slices.Index(order, id)+1)
				return nil
			})
		},
	}
}

// seedToolOrder stores the current visible order when id has no explicit
// position yet, so that moving it is relative to what the user sees.
func (a *app) seedToolOrder(id string) {
	if slices.Contains(a.visibility.Snapshot().ToolOrder, id) {
		return
	}
	sorted := visibility.GetSortedTools(a.visibility, a.tools())
	a.visibility.ReorderTools(toolIDs(sorted.Visible))
}

func (c *cli) toolsReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <tool-id>...",
		Short: "Set the order of unpinned tools",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				if err := a.requireTools(args); err != nil {
					return err
				}
				a.visibility.ReorderTools(args)
				fmt.Fprintln(cmd.OutOrStdout(), "Order:", strings.Join(args, ", "))
				return nil
			})
		},
	}
}

func (c *cli) toolsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all pins, hidden tools and ordering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				a.visibility.ResetVisibility()
				fmt.Fprintln(cmd.OutOrStdout(), "Tool visibility reset.")
				return nil
			})
		},
	}
}

func (c *cli) toolsToggleHiddenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-hidden",
		Short: "Toggle whether hidden tools are listed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				a.visibility.ToggleShowHiddenTools()
				state := "off"
				if a.visibility.ShowHiddenTools() {
					state = "on"
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Show hidden tools:", state)
				return nil
			})
		},
	}
}

func (a *app) requireTools(ids []string) error {
	for _, id := range ids {
		if _, ok := a.findTool(id); !ok {
			return fmt.Errorf("unknown tool %q", id)
		}
	}
	return nil
}

func printToolStatus(w io.Writer, s *visibility.Store, ids []string) {
	for _, id := range ids {
		status := "visible"
		switch {
		case s.IsHidden(id):
			status = "hidden"
		case s.IsPinned(id):
			status = "pinned"
		}
		fmt.Fprintf(w, "%s: %s\n", id, status)
	}
}
