package auth

import (
	"errors"
	"fmt"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// LogoutCommand returns the "auth logout" cobra command.
func LogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout [host]",
		Short: "Delete a host's stored credential",
		Long: `Remove the credential for a host from the system keyring. The host
stays registered; authenticated calls fail until a new credential is stored.

Examples:
  gloski auth logout web-1`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runLogout,
		SilenceUsage: true,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.ResolveOrDefault(argOrEmpty(args))
	if err != nil {
		return err
	}

	if err := sessions.Credentials.Delete(prof.ID); err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No credential stored for %q\n", prof.Name)
			return nil
		}
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted credential for %q\n", prof.Name)
	return nil
}
