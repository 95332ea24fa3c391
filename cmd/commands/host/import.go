package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ImportCommand returns the "host import" cobra command.
func ImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import hosts from a JSON file",
		Long: `Register hosts from a file written by "host export". Hosts whose name
is already taken are skipped. Credentials are not part of the export;
add them afterwards with "auth key" or "auth login".

Examples:
  gloski host import hosts.json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runImport,
		SilenceUsage: true,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var in exportFile
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	imported, skipped := 0, 0
	for _, h := range in.Hosts {
		method := profile.AuthMethod(h.Auth)
		if method == "" {
			method = profile.AuthAPIKey
		}

		prof := &profile.Profile{
			ID:       uuid.NewString(),
			Name:     h.Name,
			Endpoint: h.Endpoint,
			Method:   method,
		}
		if err := prof.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %q: %v\n", h.Name, err)
			skipped++
			continue
		}

		if err := sessions.Profiles.Save(prof); err != nil {
			if errors.Is(err, profile.ErrDuplicateName) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %q: already registered\n", h.Name)
				skipped++
				continue
			}
			return fmt.Errorf("failed to save host %q: %w", h.Name, err)
		}
		imported++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d hosts (%d skipped)\n", imported, skipped)
	if imported > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Credentials are not exported; add them with 'gloski auth key <host>' or 'gloski auth login <host>'.")
	}
	return nil
}
