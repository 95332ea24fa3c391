package jobs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ListCommand returns the "jobs list" cobra command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Long: `List all jobs the agent tracks, running and finished.

Examples:
  gloski jobs list
  gloski jobs list --host web-1 -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	jobs, err := client.Jobs.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No jobs. Start one with 'gloski jobs start <command>'.")
		return nil
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printJobsJSON(cmd, jobs)
	default:
		printJobTable(cmd, jobs)
	}

	return nil
}
