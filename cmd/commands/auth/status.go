package auth

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// StatusCommand returns the "auth status" cobra command.
func StatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [host]",
		Short: "Show credential status per host",
		Long: `Show which hosts have a stored credential and whether the agent
accepts it. With a host argument only that host is checked.

Examples:
  gloski auth status
  gloski auth status web-1`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runStatus,
		SilenceUsage: true,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	var profiles []profile.Profile
	if len(args) == 1 {
		prof, err := sessions.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("unknown host %q: %w", args[0], err)
		}
		profiles = []profile.Profile{*prof}
	} else {
		profiles, err = sessions.Profiles.List()
		if err != nil {
			return fmt.Errorf("failed to list hosts: %w", err)
		}
	}

	if len(profiles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No hosts registered.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tCREDENTIAL\tAGENT")
	fmt.Fprintln(w, "----\t----------\t-----")

	ctx := context.Background()
	for i := range profiles {
		p := &profiles[i]

		cred, err := sessions.Credentials.Get(p.ID)
		if errors.Is(err, credentials.ErrNotFound) {
			fmt.Fprintf(w, "%s\tnone\t-\n", p.Name)
			continue
		}
		if err != nil {
			fmt.Fprintf(w, "%s\terror (%v)\t-\n", p.Name, err)
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, cred.Method, checkAgent(ctx, sessions, p))
	}

	w.Flush()
	return nil
}

// checkAgent asks the agent whether the stored credential is accepted.
func checkAgent(ctx context.Context, sessions *session.Manager, p *profile.Profile) string {
	client, err := sessions.ClientFor(p)
	if err != nil {
		return fmt.Sprintf("error (%v)", err)
	}

	status, err := client.Auth.Status(ctx)
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	if !status.Authenticated {
		return "rejected"
	}
	return "valid"
}
