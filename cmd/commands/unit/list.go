package unit

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ListCommand returns the "unit list" cobra command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List systemd units",
		Long: `List the service units on a host.

Examples:
  gloski unit list
  gloski unit list --user
  gloski unit list --host web-1 -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	sessions, client, err := openHost(cmd)
	if err != nil {
		return err
	}
	defer sessions.Close()

	user, _ := cmd.Flags().GetBool("user")

	units, err := client.Units.List(context.Background(), user)
	if err != nil {
		return fmt.Errorf("failed to list units: %w", err)
	}

	if len(units) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No units reported.")
		return nil
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(units)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "UNIT\tLOAD\tACTIVE\tSUB\tDESCRIPTION")
	fmt.Fprintln(w, "----\t----\t------\t---\t-----------")

	for _, unit := range units {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			unit.Name,
			unit.LoadState,
			unit.ActiveState,
			unit.SubState,
			unit.Description,
		)
	}

	w.Flush()
	return nil
}
