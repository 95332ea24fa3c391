// Package provision creates Hetzner Cloud servers with the Gloski agent
// preinstalled and registers them as host profiles.
//
// A provisioning run generates (or accepts) the agent API key, renders it
// into the cloud-init user data, creates the server, waits until it runs and
// the agent answers health checks, and finally stores the profile and
// credential so the host is immediately usable by every other command.
package provision

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"
	"github.com/gloski/cli/internal/swrcache"
	"github.com/gloski/cli/internal/util"
)

// Provider is the keyring slot holding the Hetzner Cloud token.
const Provider = "hetzner"

// DefaultAgentPort is where the agent listens unless overridden.
const DefaultAgentPort = 8080

// DefaultImage is used when no image is requested.
const DefaultImage = "ubuntu-24.04"

// requestTimeout bounds individual Hetzner API calls.
const requestTimeout = 30 * time.Second

// Sentinel errors for Hetzner API error categories, so commands can handle
// them without importing the SDK.
var (
	ErrUnauthorized = errors.New("hetzner token rejected")
	ErrRateLimited  = errors.New("hetzner rate limited")
	ErrConflict     = errors.New("resource conflict")
)

// serverPollInterval is the delay between server status polls. It is a
// variable (not a constant) so tests can override it for speed.
var serverPollInterval = 3 * time.Second

// maxServerPolls caps server status polling. At 3 s intervals this gives
// ~5 minutes, well beyond the typical creation time.
const maxServerPolls = 100

// agentPollInterval is the delay between agent health probes after the
// server runs; cloud-init needs a while to fetch and start the agent.
var agentPollInterval = 5 * time.Second

// maxAgentPolls caps agent health polling (~5 minutes at 5 s intervals).
const maxAgentPolls = 60

// maxTransientErrors is the number of consecutive poll failures tolerated
// before giving up on an operation that may still be running server-side.
const maxTransientErrors = 3

// Provisioner creates agent hosts on Hetzner Cloud.
type Provisioner struct {
	hc       *hcloud.Client
	sessions *session.Manager
	cache    *swrcache.Cache
	progress io.Writer

	clientOpts []hcloud.ClientOption
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithCache enables catalog caching.
func WithCache(cache *swrcache.Cache) Option {
	return func(p *Provisioner) { p.cache = cache }
}

// WithProgress directs human-readable progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(p *Provisioner) { p.progress = w }
}

// WithClientOptions appends raw hcloud client options (endpoint overrides in
// tests).
func WithClientOptions(opts ...hcloud.ClientOption) Option {
	return func(p *Provisioner) { p.clientOpts = append(p.clientOpts, opts...) }
}

// New builds a Provisioner using the given Hetzner API token. Profiles and
// credentials for provisioned hosts are written through sessions.
func New(token string, sessions *session.Manager, opts ...Option) *Provisioner {
	p := &Provisioner{
		sessions: sessions,
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}

	hcOpts := []hcloud.ClientOption{
		hcloud.WithApplication("gloski", "0.1.0"),
		hcloud.WithToken(token),
	}
	p.hc = hcloud.NewClient(append(hcOpts, p.clientOpts...)...)
	return p
}

// Opts describes the host to create.
type Opts struct {
	// Name becomes the server name, the system hostname and the profile name.
	Name string

	// ServerType is the Hetzner plan, e.g. "cpx11".
	ServerType string

	// Image defaults to DefaultImage.
	Image string

	// Location is optional; Hetzner picks one when empty.
	Location string

	// SSHKeys are Hetzner SSH key names or IDs granted root access. Without
	// any, Hetzner generates a root password, surfaced in the Result.
	SSHKeys []string

	// Labels are attached to the created server.
	Labels map[string]string

	// AgentKey is the API key the agent will accept. Generated when empty.
	AgentKey string

	// AgentPort defaults to DefaultAgentPort.
	AgentPort int

	// SkipAgentWait returns right after the server runs, without waiting
	// for the agent to answer health checks.
	SkipAgentWait bool
}

// Result describes a provisioned host.
type Result struct {
	ProfileID  string
	Name       string
	Endpoint   string
	ServerID   int64
	PublicIPv4 string

	// APIKey is shown once; afterwards it lives only in the keyring.
	APIKey string

	// RootPassword is set only when no SSH keys were provided.
	RootPassword string

	// AgentReady reports whether the agent answered a health check before
	// Provision returned.
	AgentReady bool
}

// Provision creates the server and registers it as a profile.
//
// Once the server exists, failures in later steps return the partial Result
// alongside the error; the server costs money from that point on, so callers
// must be able to show its ID, key and root password even on a botched run.
func (p *Provisioner) Provision(ctx context.Context, opts Opts) (*Result, error) {
	if err := util.ValidateHostName(opts.Name); err != nil {
		return nil, err
	}
	if opts.ServerType == "" {
		return nil, errors.New("provision: server type is required")
	}
	if opts.Image == "" {
		opts.Image = DefaultImage
	}
	if opts.AgentPort <= 0 {
		opts.AgentPort = DefaultAgentPort
	}

	// Refuse names that would shadow an existing profile before spending
	// money on a server.
	if _, err := p.sessions.Profiles.GetByName(opts.Name); err == nil {
		return nil, fmt.Errorf("provision: host %q already exists: %w", opts.Name, ErrConflict)
	} else if !errors.Is(err, profile.ErrNotFound) {
		return nil, err
	}

	apiKey := opts.AgentKey
	if apiKey == "" {
		var err error
		if apiKey, err = newAgentKey(); err != nil {
			return nil, err
		}
	}

	userData, err := RenderUserData(UserDataParams{
		Hostname: opts.Name,
		APIKey:   apiKey,
		Port:     opts.AgentPort,
	})
	if err != nil {
		return nil, err
	}

	createOpts := hcloud.ServerCreateOpts{
		Name:       opts.Name,
		ServerType: &hcloud.ServerType{Name: opts.ServerType},
		Image:      &hcloud.Image{Name: opts.Image},
		UserData:   userData,
		Labels:     opts.Labels,
	}
	if opts.Location != "" {
		createOpts.Location = &hcloud.Location{Name: opts.Location}
	}

	// The create request wants SSH key IDs, so resolve each name-or-ID
	// through the API first.
	for _, key := range opts.SSHKeys {
		sshKey, _, err := p.hc.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("provision: resolve SSH key %q: %w", key, mapHetznerErr(err))
		}
		if sshKey == nil {
			return nil, fmt.Errorf("provision: SSH key %q not found", key)
		}
		createOpts.SSHKeys = append(createOpts.SSHKeys, sshKey)
	}

	fmt.Fprintf(p.progress, "Creating server %q [type=%s, image=%s]\n", opts.Name, opts.ServerType, opts.Image)

	created, _, err := p.hc.Server.Create(ctx, createOpts)
	if err != nil {
		return nil, fmt.Errorf("provision: create server: %w", mapHetznerErr(err))
	}

	res := &Result{
		Name:         opts.Name,
		ServerID:     created.Server.ID,
		APIKey:       apiKey,
		RootPassword: created.RootPassword,
	}

	server, err := p.waitServerRunning(ctx, created.Server.ID)
	if err != nil {
		return res, err
	}
	if server.PublicNet.IPv4.IsUnspecified() {
		return res, fmt.Errorf("provision: server %q has no public IPv4", opts.Name)
	}
	res.PublicIPv4 = server.PublicNet.IPv4.IP.String()
	res.Endpoint = fmt.Sprintf("http://%s:%d", res.PublicIPv4, opts.AgentPort)

	prof := &profile.Profile{
		ID:       uuid.NewString(),
		Name:     opts.Name,
		Endpoint: res.Endpoint,
		Method:   profile.AuthAPIKey,
	}
	if err := p.sessions.Profiles.Save(prof); err != nil {
		return res, fmt.Errorf("provision: save profile: %w", err)
	}
	res.ProfileID = prof.ID

	cred := credentials.Credential{Method: profile.AuthAPIKey, Secret: apiKey}
	if err := p.sessions.SetCredential(prof, cred); err != nil {
		return res, fmt.Errorf("provision: store credential: %w", err)
	}

	if !opts.SkipAgentWait {
		fmt.Fprintf(p.progress, "Waiting for the agent at %s (cloud-init can take a few minutes)...\n", res.Endpoint)
		if err := p.waitAgentReady(ctx, prof); err != nil {
			// The server exists and the profile is stored; the agent just
			// has not come up yet. Report without tearing anything down.
			return res, fmt.Errorf("provision: agent not reachable yet: %w", err)
		}
		res.AgentReady = true
		fmt.Fprintln(p.progress, "Agent is up.")
	}

	return res, nil
}

// waitServerRunning polls the server until Hetzner reports it running.
func (p *Provisioner) waitServerRunning(ctx context.Context, id int64) (*hcloud.Server, error) {
	var consecutiveErrors int

	for i := 0; i < maxServerPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(serverPollInterval):
		}

		server, _, err := p.hc.Server.GetByID(ctx, id)
		if err != nil {
			if hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded) {
				return nil, fmt.Errorf("polling stopped: %w", ErrRateLimited)
			}
			consecutiveErrors++
			if consecutiveErrors >= maxTransientErrors {
				return nil, fmt.Errorf("error polling server (after %d consecutive failures): %w", consecutiveErrors, err)
			}
			fmt.Fprintf(p.progress, "  Transient error, retrying... (%d/%d)\n", consecutiveErrors, maxTransientErrors)
			continue
		}
		consecutiveErrors = 0

		if server == nil {
			return nil, fmt.Errorf("server %d disappeared while polling", id)
		}
		if server.Status == hcloud.ServerStatusRunning {
			return server, nil
		}
		fmt.Fprintf(p.progress, "  Status: %s\n", server.Status)
	}

	return nil, fmt.Errorf("timed out waiting for server to run (%d polls)", maxServerPolls)
}

// waitAgentReady polls the agent's health endpoint until it answers.
func (p *Provisioner) waitAgentReady(ctx context.Context, prof *profile.Profile) error {
	client := p.sessions.Probe(prof)

	var lastErr error
	for i := 0; i < maxAgentPolls; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(agentPollInterval):
		}

		if _, err := client.Health(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	return fmt.Errorf("agent did not answer after %d probes: %w", maxAgentPolls, lastErr)
}

// newAgentKey generates the shared secret the agent is installed with.
func newAgentKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("provision: generate agent key: %w", err)
	}
	return "gk_" + hex.EncodeToString(raw), nil
}

// mapHetznerErr wraps SDK error categories in package sentinels.
func mapHetznerErr(err error) error {
	switch {
	case hcloud.IsError(err, hcloud.ErrorCodeUnauthorized):
		return fmt.Errorf("%w: %s", ErrUnauthorized, hetznerMessage(err))
	case hcloud.IsError(err, hcloud.ErrorCodeRateLimitExceeded):
		return fmt.Errorf("%w: %s", ErrRateLimited, hetznerMessage(err))
	case hcloud.IsError(err, hcloud.ErrorCodeConflict), hcloud.IsError(err, hcloud.ErrorCodeUniquenessError):
		return fmt.Errorf("%w: %s", ErrConflict, hetznerMessage(err))
	default:
		return err
	}
}

func hetznerMessage(err error) string {
	var hcErr hcloud.Error
	if errors.As(err, &hcErr) {
		return strings.TrimSpace(hcErr.Message)
	}
	return err.Error()
}
