package provision

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the top-level "provision" Cobra command with all subcommands attached.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create new managed hosts",
		Long:  `Create cloud servers with the gloski agent preinstalled and register them as hosts.`,
	}

	cmd.AddCommand(HetznerCommand())
	cmd.AddCommand(TokenCommand())

	return cmd
}
