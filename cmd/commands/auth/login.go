package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// LoginCommand returns the "auth login" cobra command.
func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [host]",
		Short: "Log in to an agent with its admin password",
		Long: `Exchange the agent's admin password for a bearer token and store it
in the system keyring. The host's auth method switches to bearer.

Without a host argument the configured default-host is used.

Examples:
  gloski auth login web-1
  gloski auth login web-1 --password s3cret`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("password", "", "Admin password (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.ResolveOrDefault(argOrEmpty(args))
	if err != nil {
		return err
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--password is required in non-interactive mode")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password for %s: ", prof.Name)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		password = strings.TrimSpace(string(raw))
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	// Login is the one call that needs no stored credential.
	client := sessions.Probe(prof)
	result, err := client.Auth.Login(context.Background(), password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cred := credentials.Credential{Method: profile.AuthBearer, Secret: result.Token}
	if err := sessions.SetCredential(prof, cred); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %q; token stored in the keyring", prof.Name)
	if result.ExpiresIn > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (expires in %s)", time.Duration(result.ExpiresIn)*time.Second)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// argOrEmpty returns the first positional argument, or "" when none was given.
func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
