package config

import (
	"fmt"
	"strings"

	"github.com/gloski/cli/internal/config"

	"github.com/spf13/cobra"
)

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: "Print a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  gloski config get default-host",
		Args:         cobra.ExactArgs(1),
		RunE:         runGet,
		SilenceUsage: true,
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	spec := config.Lookup(args[0])
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value := spec.Get(cfg)
	if value == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "not set")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), value)
	}
	return nil
}
