package fs

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"
)

// UploadCommand returns the "fs upload" cobra command.
func UploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local-file> <remote-dir>",
		Short: "Upload a file to a host",
		Long: `Stream a local file into a directory on the host. The remote name is
the local file's base name.

Examples:
  gloski fs upload ./app.tar.gz /opt/app/releases
  gloski fs upload --host web-1 backup.sql /var/backups`,
		Args:         cobra.ExactArgs(2),
		RunE:         runUpload,
		SilenceUsage: true,
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	local, remoteDir := args[0], args[1]

	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", local, err)
	}
	defer f.Close()

	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	result, err := client.Files.Upload(context.Background(), remoteDir, local, f)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n", path.Join(remoteDir, result.Filename))
	return nil
}
