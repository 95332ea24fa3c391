package host

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/gloski/cli/internal/profile"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// hostRow is the printable and encodable view of a stored profile.
type hostRow struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Endpoint string     `json:"endpoint"`
	Auth     string     `json:"auth"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
	Version  string     `json:"agent_version,omitempty"`
}

func rowFromProfile(p profile.Profile) hostRow {
	row := hostRow{
		ID:       p.ID,
		Name:     p.Name,
		Endpoint: p.Endpoint,
		Auth:     string(p.Method),
		Status:   string(p.Status),
	}
	if !p.LastSeen.IsZero() {
		seen := p.LastSeen
		row.LastSeen = &seen
	}
	return row
}

// printHostsJSON encodes host rows as indented JSON to the command's stdout.
func printHostsJSON(cmd *cobra.Command, rows []hostRow) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(rows)
}

// printHostJSON encodes a single host row as indented JSON to stdout.
func printHostJSON(cmd *cobra.Command, row hostRow) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(row)
}

// printHostTable prints one line per host.
func printHostTable(cmd *cobra.Command, rows []hostRow) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tENDPOINT\tAUTH\tLAST SEEN")
	fmt.Fprintln(w, "----\t------\t--------\t----\t---------")

	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Name,
			row.Status,
			row.Endpoint,
			row.Auth,
			formatLastSeen(row.LastSeen),
		)
	}

	w.Flush()
}

// printHostDetail prints a vertical key-value table of all host fields.
func printHostDetail(cmd *cobra.Command, row hostRow) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  Name:\t%s\n", row.Name)
	fmt.Fprintf(w, "  ID:\t%s\n", row.ID)
	fmt.Fprintf(w, "  Status:\t%s\n", row.Status)
	fmt.Fprintf(w, "  Endpoint:\t%s\n", row.Endpoint)
	fmt.Fprintf(w, "  Auth:\t%s\n", row.Auth)
	if row.Version != "" {
		fmt.Fprintf(w, "  Agent version:\t%s\n", row.Version)
	}
	fmt.Fprintf(w, "  Last seen:\t%s\n", formatLastSeen(row.LastSeen))

	w.Flush()
}

// formatLastSeen renders a last-seen timestamp for table output.
func formatLastSeen(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return humanize.Time(*t)
}
