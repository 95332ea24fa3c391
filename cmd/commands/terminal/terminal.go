package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/termattach"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewCommand returns the top-level "terminal" cobra command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminal [host]",
		Short: "Open an interactive shell on a host",
		Long: `Attach the local terminal to a shell on the host over the agent's
WebSocket. The window size is forwarded on every change. Press Ctrl-]
to detach.

Examples:
  gloski terminal web-1
  gloski terminal web-1 --cwd /opt/app`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runTerminal,
		SilenceUsage: true,
	}

	cmd.Flags().String("cwd", "", "Initial working directory for the shell")

	return cmd
}

func runTerminal(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("terminal requires an interactive TTY")
	}

	sessions, err := session.Default()
	if err != nil {
		return err
	}
	defer sessions.Close()

	host := ""
	if len(args) == 1 {
		host = args[0]
	}
	prof, err := sessions.ResolveOrDefault(host)
	if err != nil {
		return err
	}

	client, err := sessions.ClientFor(prof)
	if err != nil {
		return err
	}

	cwd, _ := cmd.Flags().GetString("cwd")

	fmt.Fprintf(cmd.ErrOrStderr(), "Connecting to %s. Detach with Ctrl-].\n", prof.Name)

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	t := termattach.New(
		termattach.WithStreams(os.Stdin, os.Stdout),
		termattach.WithSize(func() (int, int, error) {
			return term.GetSize(int(os.Stdout.Fd()))
		}),
	)

	err = t.Attach(context.Background(), client.TerminalURL(cwd))

	// Leave raw mode before printing so the exit line renders normally.
	term.Restore(fd, oldState)

	switch {
	case err == nil:
		fmt.Fprintln(cmd.ErrOrStderr(), "Session closed by the agent.")
	case errors.Is(err, termattach.ErrDetached):
		fmt.Fprintln(cmd.ErrOrStderr(), "Detached.")
	default:
		return err
	}
	return nil
}
