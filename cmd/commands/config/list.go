package config

import (
	"fmt"
	"text/tabwriter"

	"github.com/gloski/cli/internal/config"

	"github.com/spf13/cobra"
)

// ListCommand returns the "config list" command.
func ListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: "Print every configuration key with its current value.\n\n" +
			"Examples:\n" +
			"  gloski config list",
		Args:         cobra.ExactArgs(0),
		RunE:         runList,
		SilenceUsage: true,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	fmt.Fprintln(w, "---\t-----")

	for _, spec := range config.Keys {
		value := spec.Get(cfg)
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(w, "%s\t%s\n", spec.Name, value)
	}

	w.Flush()
	return nil
}
