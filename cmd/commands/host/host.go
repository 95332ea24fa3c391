/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package host

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the top-level "host" Cobra command with all subcommands attached.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Manage registered hosts",
		Long:  `Register, inspect, rename, and remove servers running the gloski agent.`,
	}

	cmd.AddCommand(AddCommand())
	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(RenameCommand())
	cmd.AddCommand(RemoveCommand())
	cmd.AddCommand(ExportCommand())
	cmd.AddCommand(ImportCommand())

	return cmd
}
