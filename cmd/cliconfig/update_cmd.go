package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/config"
	"cliconfig-go/internal/updater"
)

func (c *cli) updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for, dismiss and install new cliconfig releases",
		Long: "Look up the latest release of the repository set with " +
			"\"cliconfig config set update-repo owner/name\".",
	}
	cmd.AddCommand(c.updateCheckCmd(), c.updateDismissCmd(), c.updateApplyCmd())
	return cmd
}

// checkUpdate looks up the latest release. A release the user dismissed is
// reported as not available.
func (a *app) checkUpdate(ctx context.Context) (*updater.Status, bool, error) {
	st, err := updater.NewChecker(a.cfg.Update, a.logger).Check(ctx, version)
	if err != nil {
		if errors.Is(err, updater.ErrNoRepo) {
			return nil, false, fmt.Errorf("%w: run \"cliconfig config set update-repo owner/name\" first", err)
		}
		return nil, false, err
	}

	dismissed, err := a.storage.LoadDismissedUpdate()
	if err != nil {
		return nil, false, err
	}
	skipped := st.Available && dismissed == st.Latest
	if skipped {
		st.Available = false
	}
	return st, skipped, nil
}

func (c *cli) updateCheckCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a newer release exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				st, skipped, err := a.checkUpdate(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				switch {
				case st.Available:
					fmt.Fprintf(out, "Update available: %s (running %s)\n", st.Latest, st.Current)
					if st.Release.HTMLURL != "" {
						fmt.Fprintln(out, st.Release.HTMLURL)
					}
					fmt.Fprintln(out, "Run \"cliconfig update apply\" to install it or \"cliconfig update dismiss\" to skip it.")
				case skipped:
					fmt.Fprintf(out, "Update %s was dismissed.\n", st.Latest)
				default:
					fmt.Fprintf(out, "cliconfig %s is up to date.\n", st.Current)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *cli) updateDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss [version]",
		Short: "Stop reporting a release (default: the latest one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				var v string
				if len(args) == 1 {
					v = args[0]
				} else {
					release, err := updater.NewChecker(a.cfg.Update, a.logger).LatestRelease(cmd.Context())
					if err != nil {
						return err
					}
					v = release.TagName
				}
				v = (&updater.Release{TagName: v}).Version()

				if err := a.storage.SaveDismissedUpdate(v); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dismissed update %s.\n", v)
				return nil
			})
		},
	}
}

func (c *cli) updateApplyCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Download the latest release and replace this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(func(a *app) error {
				checker := updater.NewChecker(a.cfg.Update, a.logger)
				st, err := checker.Check(cmd.Context(), version)
				if err != nil {
					return err
				}
				if !st.Available {
					fmt.Fprintf(cmd.OutOrStdout(), "cliconfig %s is up to date.\n", st.Current)
					return nil
				}

				url, err := updater.FindAssetURL(st.Release, runtime.GOOS, runtime.GOARCH)
				if err != nil {
					return err
				}

				if target == "" {
					if target, err = os.Executable(); err != nil {
						return fmt.Errorf("failed to locate the running binary: %w", err)
					}
				}

				ctx, cancel := context.WithTimeout(cmd.Context(), config.UpdateDownloadTimeout)
				defer cancel()
				if err := checker.Apply(ctx, url, target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated to %s. Run cliconfig again to use it.\n", st.Latest)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "binary to replace (default: the running one)")
	_ = cmd.Flags().MarkHidden("target")
	return cmd
}
