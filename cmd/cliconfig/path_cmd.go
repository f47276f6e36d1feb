package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cliconfig-go/internal/pathfmt"
)

func (c *cli) pathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Format config file paths for display",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "name <path>",
			Short: "Print the file name of a path",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, ok := pathfmt.FileName(args[0])
				if !ok {
					return errors.New("path has no file name")
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "dir <path>",
			Short: "Print the directory part of a path",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir, ok := pathfmt.DirName(args[0])
				if !ok {
					return errors.New("path has no directory")
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			},
		},
		c.pathTruncateCmd(),
	)
	return cmd
}

func (c *cli) pathTruncateCmd() *cobra.Command {
	var maxLength int

	cmd := &cobra.Command{
		Use:   "truncate <path>",
		Short: "Shorten a path, keeping its first and last segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max") {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				maxLength = cfg.Display.PathMaxLength
			}
			fmt.Fprintln(cmd.OutOrStdout(), pathfmt.TruncatePath(args[0], maxLength))
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxLength, "max", "m", 0, "maximum length in characters (default from config)")
	return cmd
}
