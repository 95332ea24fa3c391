package config

import (
	"fmt"
	"strings"

	"github.com/gloski/cli/internal/config"
	"github.com/gloski/cli/internal/profile"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  gloski config set default-host web-1\n" +
			"  gloski config set process-limit 50",
		Args:         cobra.ExactArgs(2),
		RunE:         runSet,
		SilenceUsage: true,
	}
}

// validators maps key names to extra pre-save checks beyond the KeySpec's own.
var validators = map[string]func(value string) error{
	"default-host": validateHostExists,
}

func runSet(cmd *cobra.Command, args []string) error {
	spec := config.Lookup(args[0])
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	value := strings.TrimSpace(args[1])

	if spec.Validate != nil {
		if err := spec.Validate(value); err != nil {
			return err
		}
	}
	if validate, ok := validators[spec.Name]; ok {
		if err := validate(value); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	spec.Set(cfg, value)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, value)
	return nil
}

// validateHostExists checks that the value names a registered host, so a typo
// here does not break every command that relies on the default.
func validateHostExists(value string) error {
	repo, err := profile.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	if _, err := repo.Resolve(value); err != nil {
		return fmt.Errorf("unknown host %q (register it first with 'gloski host add')", value)
	}
	return nil
}
