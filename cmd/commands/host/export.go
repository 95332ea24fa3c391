package host

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// exportFile is the on-disk shape of "host export". Secrets are never
// included; credentials must be re-added after import.
type exportFile struct {
	ExportedAt time.Time    `json:"exported_at"`
	Hosts      []exportHost `json:"hosts"`
}

type exportHost struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Auth     string `json:"auth"`
}

// ExportCommand returns the "host export" cobra command.
func ExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export hosts to a JSON file",
		Long: `Write all registered hosts to a JSON file, or to stdout when no file
is given. Secrets stay in the keyring and are never exported.

Examples:
  gloski host export hosts.json
  gloski host export > hosts.json`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runExport,
		SilenceUsage: true,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	profiles, err := sessions.Profiles.List()
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	out := exportFile{ExportedAt: time.Now().UTC()}
	for _, p := range profiles {
		out.Hosts = append(out.Hosts, exportHost{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Auth:     string(p.Method),
		})
	}

	if len(args) == 0 {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d hosts to %s\n", len(out.Hosts), args[0])
	return nil
}
