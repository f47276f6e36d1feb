package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/errmsg"
	"cliconfig-go/internal/logs"
)

func (c *cli) errorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "error",
		Short: "Explain error messages and inspect the failure log",
	}
	cmd.AddCommand(c.errorExplainCmd(), c.errorLogCmd())
	return cmd
}

func (c *cli) errorExplainCmd() *cobra.Command {
	var (
		short   bool
		context string
	)

	cmd := &cobra.Command{
		Use:   "explain <message>...",
		Short: "Turn a raw error message into a friendly one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.Join(args, " ")
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), errmsg.FormatShort(raw, context))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), errmsg.Format(raw, context))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "omit the suggested action")
	cmd.Flags().StringVarP(&context, "context", "c", "", "prefix describing what failed, e.g. \"Failed to save\"")
	return cmd
}

func (c *cli) errorLogCmd() *cobra.Command {
	var clearLog bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recorded command failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			if clearLog {
				if err := logs.BackupAndClearFailureLog(cfg.DataDir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Failure log cleared.")
				return nil
			}

			lines, err := logs.ReadFailures(cfg.DataDir)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No failures recorded.")
				return nil
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearLog, "clear", false, "back up and empty the failure log")
	return cmd
}
