// Package probe checks agent reachability across stored host profiles.
//
// A sweep fans out over every profile concurrently, asks each agent for its
// health and, when a credential is stored, verifies that the credential is
// still accepted. Results never abort the sweep; per-host failures are
// reported alongside the healthy hosts.
package probe

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"
)

// defaultLimit bounds how many agents are probed at once.
const defaultLimit = 8

// Result is the outcome of probing a single host.
type Result struct {
	Profile profile.Profile

	// Health is the agent's health payload, when it answered.
	Health *api.HealthInfo

	// Status is the connectivity classification derived from the probe.
	Status api.Status

	// Err explains a degraded Status. A host can be StatusOnline with a
	// non-nil Err when the agent answered but no credential is stored.
	Err error
}

// Prober sweeps stored profiles for reachability.
type Prober struct {
	sessions *session.Manager
	limit    int
}

// Option configures a Prober.
type Option func(*Prober)

// WithLimit caps concurrent probes. Values below 1 fall back to the default.
func WithLimit(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.limit = n
		}
	}
}

// New builds a Prober over the given session manager.
func New(sessions *session.Manager, opts ...Option) *Prober {
	p := &Prober{sessions: sessions, limit: defaultLimit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sweep probes every stored profile and returns one result per profile, in
// repository order. It fails only when listing profiles fails or ctx is
// cancelled; individual host failures are carried in the results.
func (p *Prober) Sweep(ctx context.Context) ([]Result, error) {
	profiles, err := p.sessions.Profiles.List()
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(profiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i, prof := range profiles {
		i, prof := i, prof
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.One(gctx, prof)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// One probes a single profile. The agent's health endpoint is checked first
// without credentials; when that answers and a credential is stored, the
// credential is verified against the auth status endpoint.
func (p *Prober) One(ctx context.Context, prof profile.Profile) Result {
	res := Result{Profile: prof}

	health, err := p.sessions.Probe(&prof).Health(ctx)
	if err != nil {
		res.Status = api.StatusOffline
		res.Err = err
		return res
	}
	res.Health = health
	res.Status = api.StatusOnline

	client, err := p.sessions.ClientFor(&prof)
	if err != nil {
		// Reachable but nothing to authenticate with. Leave the host
		// online and surface the missing credential.
		res.Err = err
		return res
	}

	if _, err := client.Auth.Status(ctx); err != nil {
		res.Status = classify(err)
		res.Err = err
	}
	return res
}

// classify maps a failed authenticated call onto a profile status.
func classify(err error) api.Status {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == api.ErrorCodeUnauthorized:
			return api.StatusUnauthorized
		case apiErr.Status == 0:
			return api.StatusOffline
		default:
			// The agent answered with an error; it is still up.
			return api.StatusOnline
		}
	}
	return api.StatusOffline
}
