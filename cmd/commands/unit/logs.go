package unit

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// LogsCommand returns the "unit logs" cobra command.
func LogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <unit>",
		Short: "Print a unit's journal",
		Long: `Print the last journal lines of a systemd unit.

Examples:
  gloski unit logs nginx.service
  gloski unit logs nginx.service --lines 200
  gloski unit logs syncthing.service --user`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogs,
		SilenceUsage: true,
	}

	cmd.Flags().Int("lines", 100, "Number of journal lines")

	return cmd
}

func runLogs(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	user, _ := cmd.Flags().GetBool("user")
	lines, _ := cmd.Flags().GetInt("lines")

	logs, err := client.Units.Logs(context.Background(), args[0], user, lines)
	if err != nil {
		return fmt.Errorf("failed to fetch logs for %s: %w", args[0], err)
	}

	if len(logs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No journal entries for %s.\n", args[0])
		return nil
	}

	for _, line := range logs {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
