package fs

import (
	"fmt"

	"github.com/spf13/cobra"
)

// URLCommand returns the "fs url" cobra command.
func URLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <path>",
		Short: "Print a download link for a file",
		Long: `Print a browser-usable download link for a file. Links cannot carry
headers, so the credential is embedded as a query parameter; treat the
URL like the secret itself.

Examples:
  gloski fs url /var/backups/backup.sql`,
		Args:         cobra.ExactArgs(1),
		RunE:         runURL,
		SilenceUsage: true,
	}
}

func runURL(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	fmt.Fprintln(cmd.OutOrStdout(), client.Files.DownloadURL(args[0]))
	fmt.Fprintln(cmd.ErrOrStderr(), "Note: the URL embeds your credential.")
	return nil
}
