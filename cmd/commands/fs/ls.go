package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// LsCommand returns the "fs ls" cobra command.
func LsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Long: `List the entries of a directory on the host.

Examples:
  gloski fs ls /var/log
  gloski fs ls --host web-1 /etc
  gloski fs ls /etc -o json`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runLs,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runLs(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	path := "/"
	if len(args) == 1 {
		path = args[0]
	}

	listing, err := client.Files.List(context.Background(), path)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", path, err)
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}

	if len(listing.Entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is empty.\n", listing.Path)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "MODE\tSIZE\tMODIFIED\tNAME")
	fmt.Fprintln(w, "----\t----\t--------\t----")

	for _, entry := range listing.Entries {
		size := humanize.IBytes(uint64(entry.Size))
		name := entry.Name
		if entry.IsDir {
			size = "-"
			name += "/"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			entry.Mode,
			size,
			entry.ModTime.Format("2006-01-02 15:04"),
			name,
		)
	}

	w.Flush()
	return nil
}
