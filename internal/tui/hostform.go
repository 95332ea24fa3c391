package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gloski/cli/internal/profile"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrAborted is returned when the user cancels a form or wizard.
var ErrAborted = errors.New("aborted by user")

// HostDetails are the answers collected by the host registration form.
type HostDetails struct {
	Name     string
	Endpoint string
	Method   profile.AuthMethod
	Secret   string
}

// RunHostForm walks the user through registering a host: name, agent URL,
// credential type, and the secret itself. Prefilled fields become defaults
// so flags and the form can mix.
func RunHostForm(prefill HostDetails) (*HostDetails, error) {
	d := prefill
	if d.Method == "" {
		d.Method = profile.AuthAPIKey
	}
	methodStr := string(d.Method)

	nameField := huh.NewInput().
		Title("Host name").
		Placeholder("web-1").
		Value(&d.Name).
		Validate(func(v string) error {
			if strings.TrimSpace(v) == "" {
				return errors.New("name is required")
			}
			return nil
		})

	endpointField := huh.NewInput().
		Title("Agent URL").
		Description("Where the gloski agent listens, e.g. http://203.0.113.7:8080").
		Placeholder("http://203.0.113.7:8080").
		Value(&d.Endpoint).
		Validate(func(v string) error {
			return profile.ValidateEndpoint(strings.TrimSpace(v))
		})

	methodField := huh.NewSelect[string]().
		Title("Credential type").
		Options(
			huh.NewOption("API key  (sent as X-API-Key)", string(profile.AuthAPIKey)),
			huh.NewOption("Bearer token  (sent as Authorization: Bearer)", string(profile.AuthBearer)),
		).
		Value(&methodStr)

	secretField := huh.NewInput().
		TitleFunc(func() string {
			if methodStr == string(profile.AuthBearer) {
				return "Bearer token"
			}
			return "API key"
		}, &methodStr).
		Description("Stored in the system keyring, never in the profile database").
		EchoMode(huh.EchoModePassword).
		Value(&d.Secret).
		Validate(func(v string) error {
			if strings.TrimSpace(v) == "" {
				return errors.New("a credential is required")
			}
			return nil
		})

	if err := runForm(
		huh.NewGroup(nameField, endpointField),
		huh.NewGroup(methodField),
		huh.NewGroup(secretField),
	); err != nil {
		return nil, err
	}

	d.Name = strings.TrimSpace(d.Name)
	d.Endpoint = strings.TrimSpace(d.Endpoint)
	d.Secret = strings.TrimSpace(d.Secret)
	d.Method = profile.AuthMethod(methodStr)

	return &d, nil
}

// ConfirmRemoveHost asks before a host profile is deleted.
func ConfirmRemoveHost(name string) (bool, error) {
	confirm := false
	field := huh.NewConfirm().
		Title(fmt.Sprintf("Remove host %q?", name)).
		Description("The profile and its keyring credential are both deleted.").
		Affirmative("Remove").
		Negative("Cancel").
		Value(&confirm)

	if err := runForm(huh.NewGroup(field)); err != nil {
		return false, err
	}
	return confirm, nil
}

// WaitFor blocks on fn behind a spinner so slow calls (probes, catalog
// fetches) show progress. The spinner writes to stderr, keeping stdout
// clean for command output.
func WaitFor(title string, fn func(ctx context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(accessibleMode()).
		Output(os.Stderr).
		ActionWithErr(fn).
		Run()
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return ErrAborted
	}
	return err
}

func accessibleMode() bool {
	return os.Getenv("ACCESSIBLE") != ""
}

func runForm(groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessibleMode()).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

func selectHeight(n, max int) int {
	if n < max {
		return n + 2
	}
	return max
}
