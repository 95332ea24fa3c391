// Package profile provides persistent storage for managed server profiles.
//
// A profile records how to reach one Gloski agent: endpoint, credential
// kind, and the last connectivity status the client observed. The secret
// itself never touches the database; it lives in the system keyring, keyed
// by profile ID (see internal/credentials).
//
// Storage is backed by a SQLite database at ~/.config/gloski/gloski.db.
package profile

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gloski/cli/internal/api"
)

var (
	// ErrNotFound is returned when no profile matches a lookup.
	ErrNotFound = errors.New("profile not found")

	// ErrDuplicateName is returned when a profile name is already taken.
	ErrDuplicateName = errors.New("profile name already in use")
)

// AuthMethod names the credential kind a profile authenticates with.
// Exactly one method is active per profile.
type AuthMethod string

const (
	AuthAPIKey AuthMethod = "api_key"
	AuthBearer AuthMethod = "bearer"
)

// Profile describes one managed server.
type Profile struct {
	ID        string
	Name      string
	Endpoint  string
	Method    AuthMethod
	Status    api.Status
	LastSeen  time.Time // zero until the agent has been reached once
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a profile needs before it can be saved.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile: id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile: name is required")
	}
	if p.Name != strings.TrimSpace(p.Name) {
		return errors.New("profile: name must not have leading or trailing spaces")
	}
	if err := ValidateEndpoint(p.Endpoint); err != nil {
		return err
	}
	switch p.Method {
	case AuthAPIKey, AuthBearer:
	default:
		return fmt.Errorf("profile: invalid auth method %q", p.Method)
	}
	return nil
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL with a
// host. Trailing slashes are tolerated; api.WithEndpoint strips them.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("profile: invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("profile: endpoint %q must use http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("profile: endpoint %q has no host", endpoint)
	}
	return nil
}
