package auth

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the top-level "auth" Cobra command with all subcommands attached.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage agent credentials",
		Long:  `Log in to agents, store API keys, and check which hosts have valid credentials.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(KeyCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
