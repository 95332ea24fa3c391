package fs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// RmCommand returns the "fs rm" cobra command.
func RmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or directory",
		Long: `Delete a file or directory tree on the host.

Examples:
  gloski fs rm /tmp/build.log
  gloski fs rm /opt/app/releases/old`,
		Args:         cobra.ExactArgs(1),
		RunE:         runRm,
		SilenceUsage: true,
	}
}

func runRm(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	if err := client.Files.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
