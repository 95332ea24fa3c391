package cmd

import (
	"os"

	"github.com/gloski/cli/cmd/commands/auth"
	cfgcmd "github.com/gloski/cli/cmd/commands/config"
	"github.com/gloski/cli/cmd/commands/fs"
	"github.com/gloski/cli/cmd/commands/host"
	"github.com/gloski/cli/cmd/commands/jobs"
	"github.com/gloski/cli/cmd/commands/provision"
	"github.com/gloski/cli/cmd/commands/system"
	"github.com/gloski/cli/cmd/commands/terminal"
	"github.com/gloski/cli/cmd/commands/unit"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "gloski",
		Short: "Manage servers running the gloski agent",
		Long: `gloski is a command-line client for servers running the gloski agent.
It keeps a local registry of hosts, talks to each agent's HTTP API, and
streams live system stats over WebSocket.

Quick start:
  gloski host add                  # Register a host (interactive form)
  gloski host list                 # All hosts with live status
  gloski stats web-1 --watch       # Live dashboard for one host
  gloski provision hetzner         # Create a new agent host on Hetzner`,
	}

	cmd.AddCommand(host.NewCommand())
	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(system.StatsCommand())
	cmd.AddCommand(system.PsCommand())
	cmd.AddCommand(fs.NewCommand())
	cmd.AddCommand(jobs.NewCommand())
	cmd.AddCommand(unit.NewCommand())
	cmd.AddCommand(terminal.NewCommand())
	cmd.AddCommand(provision.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
