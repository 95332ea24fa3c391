package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// StartCommand returns the "jobs start" cobra command.
func StartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <command>...",
		Short: "Start a background job",
		Long: `Launch a shell command as a background job on the host. The job keeps
running after this command returns; follow it with "jobs logs".

Examples:
  gloski jobs start "apt-get update && apt-get upgrade -y"
  gloski jobs start --cwd /opt/app ./migrate.sh`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runStart,
		SilenceUsage: true,
	}

	cmd.Flags().String("cwd", "", "Working directory for the job")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	command := strings.Join(args, " ")
	cwd, _ := cmd.Flags().GetString("cwd")

	job, err := client.Jobs.Start(context.Background(), command, cwd)
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Started job %s", job.ID)
	if job.PID != 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (pid %d)", job.PID)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Follow it with 'gloski jobs logs %s'\n", job.ID)
	return nil
}
