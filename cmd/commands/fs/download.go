package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// DownloadCommand returns the "fs download" cobra command.
func DownloadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "download <remote-file> [local-file]",
		Short: "Download a file from a host",
		Long: `Stream a file from the host to the local disk. The local name defaults
to the remote file's base name.

Examples:
  gloski fs download /var/backups/backup.sql
  gloski fs download /var/log/syslog ./web-1-syslog`,
		Args:         cobra.RangeArgs(1, 2),
		RunE:         runDownload,
		SilenceUsage: true,
	}
}

func runDownload(cmd *cobra.Command, args []string) error {
	remote := args[0]
	local := path.Base(remote)
	if len(args) == 2 {
		local = args[1]
	}

	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	rc, err := client.Files.Download(context.Background(), remote)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer rc.Close()

	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", local, err)
	}

	n, err := io.Copy(f, rc)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(local)
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s to %s (%s)\n", remote, local, humanize.IBytes(uint64(n)))
	return nil
}
