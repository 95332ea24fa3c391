package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// KeyCommand returns the "auth key" cobra command.
func KeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key [host]",
		Short: "Store an agent API key for a host",
		Long: `Store an agent API key in the system keyring. The host's auth method
switches to api_key and the agent is probed once to verify the key.

Examples:
  gloski auth key web-1
  gloski auth key web-1 --api-key gk_...`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runKey,
		SilenceUsage: true,
	}

	cmd.Flags().String("api-key", "", "Agent API key (optional, overrides prompt)")

	return cmd
}

func runKey(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.ResolveOrDefault(argOrEmpty(args))
	if err != nil {
		return err
	}

	key, _ := cmd.Flags().GetString("api-key")
	if key == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--api-key is required in non-interactive mode")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key for %s: ", prof.Name)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		key = strings.TrimSpace(string(raw))
	}
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	cred := credentials.Credential{Method: profile.AuthAPIKey, Secret: key}
	if err := sessions.SetCredential(prof, cred); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored API key for %q\n", prof.Name)

	// Verify the key right away so a typo surfaces here, not mid-task.
	client, err := sessions.ClientFor(prof)
	if err != nil {
		return err
	}
	status, err := client.Auth.Status(context.Background())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not verify the key: %v\n", err)
		return nil
	}
	if !status.Authenticated {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the agent rejected this key.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Key verified.")
	return nil
}
