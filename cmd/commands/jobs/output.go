package jobs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/gloski/cli/internal/api"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// printJobJSON encodes a job as indented JSON to the command's stdout.
func printJobJSON(cmd *cobra.Command, job *api.Job) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(job)
}

// printJobsJSON encodes a slice of jobs as indented JSON to stdout.
func printJobsJSON(cmd *cobra.Command, jobs []api.Job) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(jobs)
}

// printJobTable prints one line per job.
func printJobTable(cmd *cobra.Command, jobs []api.Job) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPID\tEXIT\tSTARTED\tCOMMAND")
	fmt.Fprintln(w, "--\t------\t---\t----\t-------\t-------")

	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			job.ID,
			job.Status,
			pidString(job.PID),
			exitString(job.ExitCode),
			humanize.Time(job.StartedAt),
			job.Command,
		)
	}

	w.Flush()
}

// printJobDetail prints a vertical key-value table of one job.
func printJobDetail(cmd *cobra.Command, job *api.Job) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  ID:\t%s\n", job.ID)
	fmt.Fprintf(w, "  Command:\t%s\n", job.Command)
	if job.Cwd != "" {
		fmt.Fprintf(w, "  Cwd:\t%s\n", job.Cwd)
	}
	fmt.Fprintf(w, "  Status:\t%s\n", job.Status)
	if job.PID != 0 {
		fmt.Fprintf(w, "  PID:\t%d\n", job.PID)
	}
	if job.ExitCode != nil {
		fmt.Fprintf(w, "  Exit code:\t%d\n", *job.ExitCode)
	}
	fmt.Fprintf(w, "  Started:\t%s\n", job.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	if job.FinishedAt != nil {
		fmt.Fprintf(w, "  Finished:\t%s\n", job.FinishedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}

	w.Flush()
}

func pidString(pid int) string {
	if pid == 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func exitString(code *int) string {
	if code == nil {
		return "-"
	}
	return strconv.Itoa(*code)
}
