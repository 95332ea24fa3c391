package system

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/tui/components"
	"github.com/gloski/cli/internal/util"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// printStatsJSON encodes a snapshot as indented JSON to the command's stdout.
func printStatsJSON(cmd *cobra.Command, snap *api.StatsSnapshot) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(snap)
}

// printStatsDetail prints a vertical key-value table of one snapshot.
func printStatsDetail(cmd *cobra.Command, snap *api.StatsSnapshot) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  Hostname:\t%s\n", snap.Hostname)

	platform := snap.Platform
	if snap.PlatformVersion != "" {
		platform += " " + snap.PlatformVersion
	}
	if platform != "" {
		fmt.Fprintf(w, "  Platform:\t%s\n", platform)
	}
	if snap.KernelVersion != "" {
		fmt.Fprintf(w, "  Kernel:\t%s\n", snap.KernelVersion)
	}

	fmt.Fprintf(w, "  Uptime:\t%s\n", util.FormatUptime(snap.Uptime))
	fmt.Fprintf(w, "  CPU:\t%.1f%%  (%d cores)\n", snap.CPU.Percent, snap.CPU.Cores)
	fmt.Fprintf(w, "  Memory:\t%.1f%%  (%s / %s)\n",
		snap.Memory.Percent, humanize.IBytes(snap.Memory.Used), humanize.IBytes(snap.Memory.Total))
	if snap.Swap.Total > 0 {
		fmt.Fprintf(w, "  Swap:\t%.1f%%  (%s / %s)\n",
			snap.Swap.Percent, humanize.IBytes(snap.Swap.Used), humanize.IBytes(snap.Swap.Total))
	}
	fmt.Fprintf(w, "  Disk:\t%.1f%%  (%s / %s)\n",
		snap.Disk.Percent, humanize.IBytes(snap.Disk.Used), humanize.IBytes(snap.Disk.Total))
	fmt.Fprintf(w, "  Network:\trx %s/s  tx %s/s\n",
		humanize.IBytes(uint64(snap.Network.RxSpeed)), humanize.IBytes(uint64(snap.Network.TxSpeed)))
	fmt.Fprintf(w, "  Load:\t%.2f %.2f %.2f\n", snap.Load.Load1, snap.Load.Load5, snap.Load.Load15)
	fmt.Fprintf(w, "  Processes:\t%d (%d threads)\n", snap.Processes, snap.Threads)

	w.Flush()
}

// printStatsCharts renders CPU, memory, and network history as charts.
func printStatsCharts(cmd *cobra.Command, host string, history []api.StatsSnapshot, minutes int) {
	cpu := make([]float64, 0, len(history))
	mem := make([]float64, 0, len(history))
	rx := make([]float64, 0, len(history))
	tx := make([]float64, 0, len(history))
	for _, s := range history {
		cpu = append(cpu, s.CPU.Percent)
		mem = append(mem, s.Memory.Percent)
		rx = append(rx, s.Network.RxSpeed)
		tx = append(tx, s.Network.TxSpeed)
	}

	width := chartWidth()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s - last %d minutes (%d samples)\n\n", host, minutes, len(history))
	fmt.Fprintln(out, components.Chart("CPU", cpu, width, components.DefaultChartHeight, "%"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, components.Chart("Memory", mem, width, components.DefaultChartHeight, "%"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, components.DualChart("Network", rx, tx, "rx", "tx", width, components.DefaultChartHeight, "B/s"))
}

// chartWidth reads the terminal width, bounded to keep plots legible.
func chartWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		return min(w, 120)
	}
	return 80
}

// printProcessesJSON encodes the process list as indented JSON to stdout.
func printProcessesJSON(cmd *cobra.Command, procs []api.ProcessInfo) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(procs)
}

// printProcessTable prints one line per process.
func printProcessTable(cmd *cobra.Command, procs []api.ProcessInfo) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PID\tUSER\tNAME\tCPU%\tMEM%\tRSS\tCOMMAND")
	fmt.Fprintln(w, "---\t----\t----\t----\t----\t---\t-------")

	for _, p := range procs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%.1f\t%s\t%s\n",
			p.PID,
			p.User,
			p.Name,
			p.CPUPercent,
			p.MemPercent,
			humanize.IBytes(p.RSSBytes),
			p.Command,
		)
	}

	w.Flush()
}
