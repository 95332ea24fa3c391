package jobs

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// StopCommand returns the "jobs stop" cobra command.
func StopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <job-id>",
		Short: "Stop a running job",
		Long: `Terminate a running job. Finished jobs cannot be stopped.

Examples:
  gloski jobs stop b1f0c9`,
		Args:         cobra.ExactArgs(1),
		RunE:         runStop,
		SilenceUsage: true,
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	if err := client.Jobs.Stop(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to stop job %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped job %s\n", args[0])
	return nil
}
