package host

import (
	"context"
	"fmt"
	"time"

	"github.com/gloski/cli/internal/probe"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// ListCommand returns the "host list" cobra command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered hosts",
		Long: `List all registered hosts with their live status.

By default every agent is probed concurrently before printing, so the
STATUS column reflects reachability right now. Use --no-probe to print
the last stored status instead.

Examples:
  gloski host list
  gloski host list -o json
  gloski host list --no-probe`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
	cmd.Flags().Bool("no-probe", false, "Skip the health probe and print stored statuses")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	noProbe, _ := cmd.Flags().GetBool("no-probe")

	var rows []hostRow
	if noProbe {
		profiles, err := sessions.Profiles.List()
		if err != nil {
			return fmt.Errorf("failed to list hosts: %w", err)
		}
		for _, p := range profiles {
			rows = append(rows, rowFromProfile(p))
		}
	} else {
		results, err := probe.New(sessions).Sweep(context.Background())
		if err != nil {
			return fmt.Errorf("failed to probe hosts: %w", err)
		}
		for _, res := range results {
			row := rowFromProfile(res.Profile)
			row.Status = string(res.Status)
			if res.Health != nil {
				row.Version = res.Health.Version
				now := time.Now()
				row.LastSeen = &now
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No hosts registered. Add one with 'gloski host add'.")
		return nil
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printHostsJSON(cmd, rows)
	default:
		printHostTable(cmd, rows)
	}

	return nil
}
