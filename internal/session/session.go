// Package session wires profiles, credentials and API clients together.
//
// Commands resolve a host argument through a Manager and get back a ready
// client whose connectivity reports flow into the profile repository. The
// client itself stays storage-free; the Manager is the only place that
// binds the two.
package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/config"
	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/statstream"
)

// touchInterval throttles last-seen writes driven by the live stream.
const touchInterval = 30 * time.Second

// Manager builds clients and stats channels for stored profiles.
type Manager struct {
	Profiles    profile.Repository
	Credentials credentials.Store

	timeout time.Duration
	debug   io.Writer

	mu       sync.Mutex
	channels map[string]*statstream.Channel
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout overrides the per-call deadline of built clients.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithDebugWriter enables request tracing on built clients.
func WithDebugWriter(w io.Writer) Option {
	return func(m *Manager) { m.debug = w }
}

// NewManager builds a Manager over an open repository and credential store.
func NewManager(repo profile.Repository, creds credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		Profiles:    repo,
		Credentials: creds,
		channels:    make(map[string]*statstream.Channel),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Default opens the standard repository and keyring store. The caller owns
// Close.
func Default(opts ...Option) (*Manager, error) {
	repo, err := profile.Open()
	if err != nil {
		return nil, err
	}
	return NewManager(repo, credentials.DefaultStore(), opts...), nil
}

// Close disconnects all live streams and releases the repository.
func (m *Manager) Close() error {
	m.CloseStreams()
	return m.Profiles.Close()
}

// Resolve looks a profile up by name or ID.
func (m *Manager) Resolve(nameOrID string) (*profile.Profile, error) {
	return m.Profiles.Resolve(nameOrID)
}

// ResolveOrDefault resolves nameOrID, falling back to the configured
// default-host when nameOrID is empty.
func (m *Manager) ResolveOrDefault(nameOrID string) (*profile.Profile, error) {
	if nameOrID == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if cfg.DefaultHost == "" {
			return nil, errors.New("session: no host given and no default-host configured (set one with 'gloski config set default-host <name>')")
		}
		nameOrID = cfg.DefaultHost
	}
	return m.Profiles.Resolve(nameOrID)
}

// Client resolves nameOrID and builds an authenticated client for it.
func (m *Manager) Client(nameOrID string) (*api.Client, *profile.Profile, error) {
	p, err := m.Profiles.Resolve(nameOrID)
	if err != nil {
		return nil, nil, err
	}
	client, err := m.ClientFor(p)
	if err != nil {
		return nil, nil, err
	}
	return client, p, nil
}

// ClientFor builds an authenticated client for an already resolved profile.
// Connectivity transitions observed by the client are written back to the
// repository.
func (m *Manager) ClientFor(p *profile.Profile) (*api.Client, error) {
	cred, err := m.Credentials.Get(p.ID)
	if err != nil {
		return nil, fmt.Errorf("session: no credential for profile %q: %w", p.Name, err)
	}

	opts := []api.ClientOption{
		api.WithEndpoint(p.Endpoint),
		cred.ClientOption(),
		api.WithStatusFunc(m.recordStatus(p.ID)),
	}
	if m.timeout > 0 {
		opts = append(opts, api.WithTimeout(m.timeout))
	}
	if m.debug != nil {
		opts = append(opts, api.WithDebugWriter(m.debug))
	}
	return api.NewClient(opts...), nil
}

// Probe builds a credential-free client for p, for health checks and
// password logins. Status reports still flow into the repository.
func (m *Manager) Probe(p *profile.Profile) *api.Client {
	opts := []api.ClientOption{
		api.WithEndpoint(p.Endpoint),
		api.WithStatusFunc(m.recordStatus(p.ID)),
	}
	if m.debug != nil {
		opts = append(opts, api.WithDebugWriter(m.debug))
	}
	return api.NewClient(opts...)
}

// SetCredential stores cred for p and keeps the profile's auth method column
// in step with the keyring entry.
func (m *Manager) SetCredential(p *profile.Profile, cred credentials.Credential) error {
	if err := m.Credentials.Set(p.ID, cred); err != nil {
		return err
	}
	p.Method = cred.Method
	return m.Profiles.Save(p)
}

// Stream returns the stats channel for p, creating it on first use. One
// channel exists per profile; its state transitions update the stored
// status and arriving readings bump last-seen at most every touchInterval.
func (m *Manager) Stream(p *profile.Profile) *statstream.Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.channels[p.ID]; ok {
		return ch
	}

	id := p.ID
	ch := statstream.New(statstream.WithStateFunc(func(s statstream.State) {
		m.Profiles.UpdateStatus(id, streamStatus(s))
	}))

	var lastTouch time.Time
	ch.Subscribe(func(statstream.Update) {
		if time.Since(lastTouch) < touchInterval {
			return
		}
		lastTouch = time.Now()
		m.Profiles.Touch(id)
	})

	m.channels[id] = ch
	return ch
}

// CloseStreams disconnects every live channel.
func (m *Manager) CloseStreams() {
	m.mu.Lock()
	channels := make([]*statstream.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		channels = append(channels, ch)
	}
	m.mu.Unlock()

	for _, ch := range channels {
		ch.Disconnect()
	}
}

// recordStatus adapts repository writes to the client's status callback.
// Failed writes are dropped; a broken local database must not fail an
// otherwise healthy agent call.
func (m *Manager) recordStatus(id string) api.StatusFunc {
	return func(s api.Status) {
		_ = m.Profiles.UpdateStatus(id, s)
	}
}

// streamStatus maps channel states onto profile statuses.
func streamStatus(s statstream.State) api.Status {
	switch s {
	case statstream.StateConnected:
		return api.StatusOnline
	case statstream.StateConnecting:
		return api.StatusConnecting
	default:
		return api.StatusOffline
	}
}
