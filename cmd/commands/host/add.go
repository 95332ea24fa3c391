package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/probe"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/tui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AddCommand returns the "host add" cobra command.
func AddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new host",
		Long: `Register a server running the gloski agent.

The secret is stored in the system keyring; the profile database only
records which credential kind the host uses. After saving, the agent is
probed once so the host starts out with a real status.

Examples:
  # Interactive form
  gloski host add

  # Fully specified with an agent API key
  gloski host add --name web-1 --url http://203.0.113.7:8080 --api-key gk_...

  # With a bearer token instead
  gloski host add --name web-1 --url http://203.0.113.7:8080 --token eyJ...`,
		RunE:         runAdd,
		SilenceUsage: true,
	}

	cmd.Flags().String("name", "", "Host name (must be unique)")
	cmd.Flags().String("url", "", "Agent base URL, e.g. http://203.0.113.7:8080")
	cmd.Flags().String("api-key", "", "Agent API key (sent as X-API-Key)")
	cmd.Flags().String("token", "", "Bearer token (sent as Authorization: Bearer)")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	endpoint, _ := cmd.Flags().GetString("url")
	apiKey, _ := cmd.Flags().GetString("api-key")
	token, _ := cmd.Flags().GetString("token")

	if apiKey != "" && token != "" {
		return errors.New("provide --api-key or --token, not both")
	}

	details := tui.HostDetails{
		Name:     strings.TrimSpace(name),
		Endpoint: strings.TrimSpace(endpoint),
	}
	switch {
	case token != "":
		details.Method = profile.AuthBearer
		details.Secret = token
	case apiKey != "":
		details.Method = profile.AuthAPIKey
		details.Secret = apiKey
	}

	// Launch the form when the flags leave anything blank.
	if details.Name == "" || details.Endpoint == "" || details.Secret == "" {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--name, --url, and --api-key or --token are required in non-interactive mode")
		}

		filled, err := tui.RunHostForm(details)
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			return err
		}
		details = *filled
	}

	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof := &profile.Profile{
		ID:       uuid.NewString(),
		Name:     details.Name,
		Endpoint: strings.TrimRight(details.Endpoint, "/"),
		Method:   details.Method,
	}
	if err := prof.Validate(); err != nil {
		return err
	}

	if err := sessions.Profiles.Save(prof); err != nil {
		if errors.Is(err, profile.ErrDuplicateName) {
			return fmt.Errorf("a host named %q already exists", prof.Name)
		}
		return fmt.Errorf("failed to save host: %w", err)
	}

	cred := credentials.Credential{Method: details.Method, Secret: details.Secret}
	if err := sessions.SetCredential(prof, cred); err != nil {
		return fmt.Errorf("host saved, but storing the credential failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered host %q (%s)\n", prof.Name, prof.Endpoint)

	// First probe so the new host shows a real status right away.
	res := probe.New(sessions).One(context.Background(), *prof)
	if res.Err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: agent probe failed: %v\n", res.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", res.Status)
	if res.Health != nil && res.Health.Version != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Agent version: %s\n", res.Health.Version)
	}

	return nil
}
