package host

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// RenameCommand returns the "host rename" cobra command.
func RenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <host> <new-name>",
		Short: "Rename a host",
		Long: `Rename a registered host. The credential and host ID are unchanged,
so nothing needs to be re-entered.

Examples:
  gloski host rename web-1 web-prod`,
		Args:         cobra.ExactArgs(2),
		RunE:         runRename,
		SilenceUsage: true,
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	newName := strings.TrimSpace(args[1])
	if newName == "" {
		return errors.New("new name must not be empty")
	}

	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.Resolve(args[0])
	if err != nil {
		return fmt.Errorf("unknown host %q: %w", args[0], err)
	}

	if err := sessions.Profiles.Rename(prof.ID, newName); err != nil {
		if errors.Is(err, profile.ErrDuplicateName) {
			return fmt.Errorf("a host named %q already exists", newName)
		}
		return fmt.Errorf("failed to rename host: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Renamed host %q to %q\n", prof.Name, newName)
	return nil
}
