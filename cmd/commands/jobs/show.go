package jobs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ShowCommand returns the "jobs show" cobra command.
func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show details for a job",
		Long: `Display the status, exit code, and timing of a single job.

Examples:
  gloski jobs show b1f0c9
  gloski jobs show b1f0c9 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	job, err := client.Jobs.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch job %s: %w", args[0], err)
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printJobJSON(cmd, job)
	default:
		printJobDetail(cmd, job)
	}

	return nil
}
