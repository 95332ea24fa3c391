package fs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// MkdirCommand returns the "fs mkdir" cobra command.
func MkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory",
		Long: `Create a directory on the host, including missing parents.

Examples:
  gloski fs mkdir /opt/app/releases`,
		Args:         cobra.ExactArgs(1),
		RunE:         runMkdir,
		SilenceUsage: true,
	}
}

func runMkdir(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	if err := client.Files.Mkdir(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", args[0])
	return nil
}
