package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/storage"
)

func (c *cli) stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect, back up and restore the state database",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "dump",
			Short: "Print every stored namespace as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					dump, err := a.storage.Dump()
					if err != nil {
						return err
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(dump)
				})
			},
		},
		&cobra.Command{
			Use:   "backup <dest>",
			Short: "Write a consistent copy of the database to dest",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					if err := a.storage.Backup(args[0]); err != nil {
						return err
					}
					version, err := a.storage.GetSchemaVersion()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s (schema v%d) to %s\n",
						a.storage.GetBoltDB().Path(), version, args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "restore <backup>",
			Short: "Replace the current state with the contents of a backup",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withApp(func(a *app) error {
					restored, err := a.restoreFrom(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", strings.Join(restored, ", "), args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

// restoreFrom loads each store's state from a backup database and installs
// it through the store, so the change is saved and published like any
// other. Stores the backup has nothing for are left alone.
func (a *app) restoreFrom(path string) ([]string, error) {
	backup, err := storage.OpenBackup(path, a.logger.Sugar())
	if err != nil {
		return nil, err
	}
	defer backup.Close()

	vis, err := backup.LoadVisibility()
	if err != nil {
		return nil, err
	}
	p, err := backup.LoadPreferences()
	if err != nil {
		return nil, err
	}
	recent, err := backup.LoadRecentFiles()
	if err != nil {
		return nil, err
	}

	var restored []string
	if vis != nil {
		a.visibility.SetState(*vis)
		restored = append(restored, "visibility")
	}
	if p != nil {
		if err := a.prefs.Restore(*p); err != nil {
			return restored, err
		}
		restored = append(restored, "preferences")
	}
	if err := a.recent.Replace(recent); err != nil {
		return restored, err
	}
	restored = append(restored, "recent files")
	return restored, nil
}
