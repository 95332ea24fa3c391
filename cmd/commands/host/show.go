package host

import (
	"context"
	"fmt"

	"github.com/gloski/cli/internal/probe"
	"github.com/gloski/cli/internal/session"

	"github.com/spf13/cobra"
)

// ShowCommand returns the "host show" cobra command.
func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <host>",
		Short: "Show details for a host",
		Long: `Display detailed information about a single host.

The agent is probed once so the status and version are current.

Examples:
  gloski host show web-1
  gloski host show web-1 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
	cmd.Flags().Bool("no-probe", false, "Skip the health probe and print stored status")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	prof, err := sessions.Resolve(args[0])
	if err != nil {
		return fmt.Errorf("unknown host %q: %w", args[0], err)
	}

	row := rowFromProfile(*prof)

	if noProbe, _ := cmd.Flags().GetBool("no-probe"); !noProbe {
		res := probe.New(sessions).One(context.Background(), *prof)
		row.Status = string(res.Status)
		if res.Health != nil {
			row.Version = res.Health.Version
		}
	}

	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "json":
		printHostJSON(cmd, row)
	default:
		printHostDetail(cmd, row)
	}

	return nil
}
