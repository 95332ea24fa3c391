package unit

import (
	"context"
	"fmt"

	"github.com/gloski/cli/internal/api"

	"github.com/spf13/cobra"
)

// actionSpec describes one systemd verb exposed as a subcommand.
type actionSpec struct {
	verb  api.UnitAction
	short string
}

var unitActions = []actionSpec{
	{api.UnitStart, "Start a unit"},
	{api.UnitStop, "Stop a unit"},
	{api.UnitRestart, "Restart a unit"},
	{api.UnitReload, "Reload a unit's configuration"},
	{api.UnitEnable, "Enable a unit at boot"},
	{api.UnitDisable, "Disable a unit at boot"},
}

// actionCommand builds the cobra command for one systemd verb. All six share
// the same shape, so they come off this one template.
func actionCommand(spec actionSpec) *cobra.Command {
	verb := string(spec.verb)
	return &cobra.Command{
		Use:   verb + " <unit>",
		Short: spec.short,
		Long: fmt.Sprintf(`%s through the agent.

Examples:
  gloski unit %s nginx.service
  gloski unit %s syncthing.service --user`, spec.short, verb, verb),
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, spec.verb, args[0])
		},
	}
}

func runAction(cmd *cobra.Command, action api.UnitAction, unit string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	user, _ := cmd.Flags().GetBool("user")

	result, err := client.Units.Action(context.Background(), unit, action, user)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, unit, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", result.Action, result.Unit, result.Result)
	return nil
}
