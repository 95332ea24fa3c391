package host

import (
	"errors"
	"fmt"
	"os"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// RemoveCommand returns the "host remove" cobra command.
func RemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <host>",
		Short: "Remove a host",
		Long: `Remove a registered host. The profile and its keyring credential are
both deleted. The server itself is untouched.

Examples:
  gloski host remove web-1
  gloski host remove web-1 --force`,
		Args:         cobra.ExactArgs(1),
		RunE:         runRemove,
		SilenceUsage: true,
	}

	cmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.Resolve(args[0])
	if err != nil {
		return fmt.Errorf("unknown host %q: %w", args[0], err)
	}

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--force is required in non-interactive mode")
		}
		ok, err := tui.ConfirmRemoveHost(prof.Name)
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
			return nil
		}
	}

	// Credential first; a missing keyring entry is not worth failing over.
	if err := sessions.Credentials.Delete(prof.ID); err != nil && !errors.Is(err, credentials.ErrNotFound) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not delete credential: %v\n", err)
	}

	if err := sessions.Profiles.Delete(prof.ID); err != nil {
		return fmt.Errorf("failed to remove host: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed host %q\n", prof.Name)
	return nil
}
