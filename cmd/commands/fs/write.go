package fs

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// WriteCommand returns the "fs write" cobra command.
func WriteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "write <path> [content]",
		Short: "Write a file",
		Long: `Replace a file's content on the host, creating it if needed.
Content comes from the second argument, or from stdin when omitted.

Examples:
  gloski fs write /etc/motd "maintained by gloski"
  cat local.conf | gloski fs write /etc/app/app.conf`,
		Args:         cobra.RangeArgs(1, 2),
		RunE:         runWrite,
		SilenceUsage: true,
	}
}

func runWrite(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 2 {
		content = args[1]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(data)
	}

	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	if err := client.Files.Write(context.Background(), args[0], content); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(content), args[0])
	return nil
}
