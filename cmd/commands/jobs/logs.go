package jobs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// LogsCommand returns the "jobs logs" cobra command.
func LogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Print a job's output",
		Long: `Print the captured stdout of a job. Its stderr goes to this command's
stderr, so the streams stay separable in pipes.

Examples:
  gloski jobs logs b1f0c9
  gloski jobs logs b1f0c9 2>/dev/null`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogs,
		SilenceUsage: true,
	}
}

func runLogs(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	logs, err := client.Jobs.Logs(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch logs for %s: %w", args[0], err)
	}

	writeStream(cmd.OutOrStdout(), logs.Stdout)
	writeStream(cmd.ErrOrStderr(), logs.Stderr)
	return nil
}

// writeStream prints s with a guaranteed trailing newline, skipping empty streams.
func writeStream(w io.Writer, s string) {
	if s == "" {
		return
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	fmt.Fprint(w, s)
}
