package fs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gloski/cli/internal/api"

	"github.com/spf13/cobra"
)

// SearchCommand returns the "fs search" cobra command.
func SearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search files on a host",
		Long: `Search filenames under a directory, or file contents with --content.

Examples:
  gloski fs search nginx --path /etc
  gloski fs search "listen 443" --path /etc/nginx --content
  gloski fs search '*.log' --path /var/log --limit 20`,
		Args:         cobra.ExactArgs(1),
		RunE:         runSearch,
		SilenceUsage: true,
	}

	cmd.Flags().String("path", "/", "Directory to search under")
	cmd.Flags().Bool("content", false, "Match file contents instead of names")
	cmd.Flags().Int("limit", 0, "Maximum matches (agent default when 0)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	path, _ := cmd.Flags().GetString("path")
	content, _ := cmd.Flags().GetBool("content")
	limit, _ := cmd.Flags().GetInt("limit")

	result, err := client.Files.Search(context.Background(), api.SearchOpts{
		Path:    path,
		Query:   args[0],
		Content: content,
		Limit:   limit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.Count == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No matches for %q under %s.\n", args[0], path)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, match := range result.Results {
		fmt.Fprintln(out, match.Path)
		for _, line := range match.Lines {
			fmt.Fprintf(out, "  %d: %s\n", line.Line, line.Text)
		}
	}
	fmt.Fprintf(out, "\n%d matches\n", result.Count)

	return nil
}
