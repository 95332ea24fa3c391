// Package system implements the top-level "stats" and "ps" commands.
package system

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gloski/cli/internal/config"
	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// StatsCommand returns the top-level "stats" cobra command.
func StatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [host]",
		Short: "Show system stats for a host",
		Long: `Display CPU, memory, disk, network, and load figures for a host.

Without a host argument the configured default-host is used.

Examples:
  # One snapshot as a table
  gloski stats web-1

  # JSON output for scripting
  gloski stats web-1 -o json

  # Charts of the recorded history
  gloski stats web-1 --chart
  gloski stats web-1 --chart --history 30

  # Live dashboard over the stats WebSocket
  gloski stats web-1 --watch`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runStats,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
	cmd.Flags().Bool("chart", false, "Render the recorded history as charts")
	cmd.Flags().Bool("watch", false, "Open the live dashboard")
	cmd.Flags().Int("history", 0, "Chart window in minutes (default: stats-window config key)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
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

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--watch requires a terminal")
		}
		return tui.RunDashboard(sessions, prof, client)
	}

	ctx := context.Background()

	if chart, _ := cmd.Flags().GetBool("chart"); chart {
		minutes, _ := cmd.Flags().GetInt("history")
		if minutes <= 0 {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			minutes = cfg.StatsWindowOrDefault()
		}

		history, err := client.System.StatsHistory(ctx, minutes)
		if err != nil {
			return fmt.Errorf("failed to fetch stats history: %w", err)
		}
		if len(history) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet.")
			return nil
		}

		printStatsCharts(cmd, prof.Name, history, minutes)
		return nil
	}

	snap, err := client.System.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printStatsJSON(cmd, snap)
	default:
		printStatsDetail(cmd, snap)
	}

	return nil
}

// argOrEmpty returns the first positional argument, or "" when none was given.
func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
