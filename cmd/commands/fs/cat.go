package fs

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// CatCommand returns the "fs cat" cobra command.
func CatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file",
		Long: `Print the content of a text file on the host.

Examples:
  gloski fs cat /etc/hostname
  gloski fs cat --host web-1 /var/log/syslog`,
		Args:         cobra.ExactArgs(1),
		RunE:         runCat,
		SilenceUsage: true,
	}
}

func runCat(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	content, err := client.Files.Read(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	fmt.Fprint(cmd.OutOrStdout(), content.Content)
	if !strings.HasSuffix(content.Content, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
