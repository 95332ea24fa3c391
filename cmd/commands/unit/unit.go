package unit

import (
	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// NewCommand returns the top-level "unit" Cobra command with all subcommands attached.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unit",
		Short: "Manage systemd units on a host",
		Long:  `List, control, and read logs of systemd units through the agent.`,
	}

	cmd.AddCommand(ListCommand())
	for _, action := range unitActions {
		cmd.AddCommand(actionCommand(action))
	}
	cmd.AddCommand(LogsCommand())

	cmd.PersistentFlags().String("host", "", "Host to operate on (overrides default)")
	cmd.PersistentFlags().Bool("user", false, "Target the per-user systemd instance")

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
