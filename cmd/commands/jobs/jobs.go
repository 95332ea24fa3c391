package jobs

import (
	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// NewCommand returns the top-level "jobs" Cobra command with all subcommands attached.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run background jobs on a host",
		Long:  `Start shell commands as background jobs on the agent and follow their output.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(StartCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(LogsCommand())
	cmd.AddCommand(StopCommand())

	cmd.PersistentFlags().String("host", "", "Host to operate on (overrides default)")

	return cmd
}

// openHost opens the default session and builds a client for the --host flag,
// falling back to the configured default-host.
func openHost(cmd *cobra.Command) (*session.Manager, *api.Client, error) {
	sessions, err := session.Default()
	if err != nil {
		return nil, nil, err
	}

	host, _ := cmd.Flags().GetString("host")
	prof, err := sessions.ResolveOrDefault(host)
	if err != nil {
		sessions.Close()
		return nil, nil, err
	}

	client, err := sessions.ClientFor(prof)
	if err != nil {
		sessions.Close()
		return nil, nil, err
	}

	return sessions, client, nil
}
