// Package credentials stores per-profile agent secrets in the OS keyring.
//
// Each profile owns exactly one keyring entry, keyed by profile ID. The
// entry encodes the credential kind together with the secret, so a profile
// can never hold an API key and a bearer token at the same time: writing
// one replaces the other.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/profile"
)

const ServiceName = "gloski"

var ErrNotFound = errors.New("credential not found")

// Credential pairs a secret with the method it authenticates as.
type Credential struct {
	Method profile.AuthMethod
	Secret string
}

// Validate checks that the credential can be stored and used.
func (c Credential) Validate() error {
	switch c.Method {
	case profile.AuthAPIKey, profile.AuthBearer:
	default:
		return fmt.Errorf("credentials: invalid method %q", c.Method)
	}
	if c.Secret == "" {
		return errors.New("credentials: secret is empty")
	}
	return nil
}

// ClientOption returns the api option that installs this credential.
func (c Credential) ClientOption() api.ClientOption {
	if c.Method == profile.AuthBearer {
		return api.WithToken(c.Secret)
	}
	return api.WithAPIKey(c.Secret)
}

// Store is the persistence interface for profile credentials.
type Store interface {
	Set(profileID string, cred Credential) error
	Get(profileID string) (Credential, error)
	Delete(profileID string) error
}

// DefaultStore returns the standard credential store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// encode renders a credential as one keyring entry: "<method>:<secret>".
// Secrets may themselves contain colons; only the first separates.
func encode(cred Credential) string {
	return string(cred.Method) + ":" + cred.Secret
}

// decode parses a keyring entry back into a credential.
func decode(entry string) (Credential, error) {
	method, secret, ok := strings.Cut(entry, ":")
	if !ok {
		return Credential{}, errors.New("credentials: malformed keyring entry")
	}
	cred := Credential{Method: profile.AuthMethod(method), Secret: secret}
	if err := cred.Validate(); err != nil {
		return Credential{}, err
	}
	return cred, nil
}
