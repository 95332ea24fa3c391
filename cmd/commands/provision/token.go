package provision

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/provision"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// TokenCommand returns the "provision token" cobra command.
func TokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Store a Hetzner Cloud API token",
		Long: `Store the Hetzner Cloud API token in the system keyring. Create one in
the Hetzner console under Security > API tokens (read & write).

Examples:
  gloski provision token
  gloski provision token --delete`,
		RunE:         runToken,
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "API token (optional, overrides prompt)")
	cmd.Flags().Bool("delete", false, "Delete the stored token instead")

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	store := credentials.DefaultTokenStore()

	if del, _ := cmd.Flags().GetBool("delete"); del {
		if err := store.DeleteToken(provision.Provider); err != nil {
			if errors.Is(err, credentials.ErrTokenNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No Hetzner token stored.")
				return nil
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted the Hetzner API token.")
		return nil
	}

	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)
	if token == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--token is required in non-interactive mode")
		}
		fmt.Fprint(cmd.OutOrStdout(), "Enter Hetzner API token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	if err := store.SetToken(provision.Provider, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Saved the Hetzner API token.")
	return nil
}
