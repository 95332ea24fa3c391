package system

import (
	"context"
	"fmt"

	"github.com/gloski/cli/internal/config"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// PsCommand returns the top-level "ps" cobra command.
func PsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ps [host]",
		Short: "List processes on a host",
		Long: `List running processes on a host, ordered by CPU usage.

Examples:
  gloski ps web-1
  gloski ps web-1 --limit 50
  gloski ps web-1 -o json`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runPs,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 0, "Maximum rows (default: process-limit config key)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runPs(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.ResolveOrDefault(argOrEmpty(args))
	if err != nil {
		return err
	}

	client, err := sessions.ClientFor(prof)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		limit = cfg.ProcessLimitOrDefault()
	}

	procs, err := client.System.Processes(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("failed to fetch processes: %w", err)
	}

	if len(procs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No processes reported.")
		return nil
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printProcessesJSON(cmd, procs)
	default:
		printProcessTable(cmd, procs)
	}

	return nil
}
