package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gloski/cli/internal/config"
	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/provision"
	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// HetznerCommand returns the "provision hetzner" cobra command.
func HetznerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hetzner",
		Short: "Provision a host on Hetzner Cloud",
		Long: `Create a Hetzner Cloud server with the gloski agent preinstalled.

cloud-init installs and starts the agent with a fresh API key, the key
goes into your system keyring, and the server is registered as a host
once the agent answers health checks (~1-2 min after boot).

The Hetzner API token comes from the keyring; store it once with
'gloski provision token'.

Examples:
  # Interactive wizard (recommended)
  gloski provision hetzner

  # Fully specified
  gloski provision hetzner \
    --name     web-2   \
    --type     cpx11   \
    --location fsn1    \
    --ssh-key  my-key

  # Skip waiting for the agent
  gloski provision hetzner --name web-2 --type cpx11 --no-wait`,
		RunE:         runHetzner,
		SilenceUsage: true,
	}

	cmd.Flags().String("name", "", "Server name, system hostname, and host name (must be a valid hostname)")
	cmd.Flags().String("type", "", "Server type (default: hetzner-server-type config key)")
	cmd.Flags().String("image", provision.DefaultImage, "Base OS image")
	cmd.Flags().String("location", "", "Location (default: hetzner-location config key)")
	cmd.Flags().StringArray("ssh-key", nil, "SSH key name or ID (repeatable)")
	cmd.Flags().String("agent-key", "", "Agent API key (generated when empty)")
	cmd.Flags().Int("agent-port", provision.DefaultAgentPort, "Port the agent listens on")
	cmd.Flags().Bool("no-wait", false, "Return once the server runs, without waiting for the agent")
	cmd.Flags().Bool("refresh-catalog", false, "Drop the cached Hetzner catalog before fetching")

	return cmd
}

func runHetzner(cmd *cobra.Command, args []string) error {
	token, err := credentials.DefaultTokenStore().GetToken(provision.Provider)
	if err != nil {
		if errors.Is(err, credentials.ErrTokenNotFound) {
			return errors.New("no Hetzner API token stored: run 'gloski provision token' first")
		}
		return err
	}

	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	serverType, _ := cmd.Flags().GetString("type")
	image, _ := cmd.Flags().GetString("image")
	location, _ := cmd.Flags().GetString("location")
	sshKeys, _ := cmd.Flags().GetStringArray("ssh-key")
	agentKey, _ := cmd.Flags().GetString("agent-key")
	agentPort, _ := cmd.Flags().GetInt("agent-port")
	noWait, _ := cmd.Flags().GetBool("no-wait")

	if serverType == "" {
		serverType = cfg.HetznerServerType
	}
	if location == "" {
		location = cfg.HetznerLocation
	}

	opts := provision.Opts{
		Name:          name,
		ServerType:    serverType,
		Image:         image,
		Location:      location,
		SSHKeys:       sshKeys,
		AgentKey:      agentKey,
		AgentPort:     agentPort,
		SkipAgentWait: noWait,
	}

	p := provision.New(token, sessions, provision.WithProgress(cmd.ErrOrStderr()))

	if refresh, _ := cmd.Flags().GetBool("refresh-catalog"); refresh {
		if err := p.InvalidateCatalog(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not drop the catalog cache: %v\n", err)
		}
	}

	// Launch the wizard if --name was not provided.
	if opts.Name == "" {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("--name is required in non-interactive mode")
		}

		finalOpts, err := tui.RunProvisionWizard(p, opts)
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			return err
		}
		opts = *finalOpts
	}

	result, err := p.Provision(context.Background(), opts)
	if err != nil {
		// A partial result means the server already exists and costs money;
		// its ID, key, and password must reach the user even now.
		if result != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Provisioning did not finish cleanly; the server may still exist:")
			printProvisionResult(cmd, result)
		}
		return fmt.Errorf("provisioning failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Host %q provisioned!\n", result.Name)
	printProvisionResult(cmd, result)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Check it with 'gloski stats %s'\n", result.Name)
	return nil
}

// printProvisionResult prints the server facts plus the one-time secrets.
func printProvisionResult(cmd *cobra.Command, res *provision.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Name:\t%s\n", res.Name)
	fmt.Fprintf(w, "  Server ID:\t%d\n", res.ServerID)
	if res.PublicIPv4 != "" {
		fmt.Fprintf(w, "  Public IP:\t%s\n", res.PublicIPv4)
	}
	if res.Endpoint != "" {
		fmt.Fprintf(w, "  Endpoint:\t%s\n", res.Endpoint)
	}
	if res.AgentReady {
		fmt.Fprintf(w, "  Agent:\tready\n")
	} else {
		fmt.Fprintf(w, "  Agent:\tnot verified yet\n")
	}
	w.Flush()

	fmt.Fprintln(out)
	if res.APIKey != "" {
		fmt.Fprintf(out, "  Agent API key: %s  (stored in your keyring)\n", res.APIKey)
	}
	if res.RootPassword != "" {
		fmt.Fprintf(out, "  Root password: %s  (save this - shown only once)\n", res.RootPassword)
	}
}
