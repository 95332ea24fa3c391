package config

import (
	"github.com/gloski/cli/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gloski configuration",
		Long: "View and modify persistent gloski settings.\n\n" +
			"Configuration is stored at ~/.config/gloski/config.json.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(GetCommand())
	cmd.AddCommand(SetCommand())
	cmd.AddCommand(ListCommand())

	return cmd
}
