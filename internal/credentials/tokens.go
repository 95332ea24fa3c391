package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/gloski/cli/internal/util"
)

// CloudServiceName is the keyring service for cloud provider API tokens,
// kept apart from agent credentials so the two namespaces cannot collide.
const CloudServiceName = "gloski-cloud"

var ErrTokenNotFound = errors.New("credentials: provider token not found")

// TokenStore persists cloud provider API tokens (Hetzner today).
type TokenStore interface {
	SetToken(provider string, token string) error
	GetToken(provider string) (string, error)
	DeleteToken(provider string) error
}

// DefaultTokenStore returns the standard token store backed by the OS keychain.
func DefaultTokenStore() TokenStore {
	return NewKeyringTokenStore(CloudServiceName)
}

// NormalizeProvider normalizes a provider name for consistent key lookup.
func NormalizeProvider(provider string) string {
	return util.NormalizeKey(provider)
}

// KeyringTokenStore persists provider tokens in the OS keychain.
type KeyringTokenStore struct {
	serviceName string
}

func NewKeyringTokenStore(serviceName string) *KeyringTokenStore {
	if serviceName == "" {
		serviceName = CloudServiceName
	}
	return &KeyringTokenStore{serviceName: serviceName}
}

func (k *KeyringTokenStore) SetToken(provider string, token string) error {
	return keyring.Set(k.serviceName, NormalizeProvider(provider), token)
}

func (k *KeyringTokenStore) GetToken(provider string) (string, error) {
	token, err := keyring.Get(k.serviceName, NormalizeProvider(provider))
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringTokenStore) DeleteToken(provider string) error {
	err := keyring.Delete(k.serviceName, NormalizeProvider(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}

// MockTokenStore is an in-memory token store for testing.
type MockTokenStore struct {
	tokens map[string]string
}

func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{tokens: make(map[string]string)}
}

func (m *MockTokenStore) SetToken(provider string, token string) error {
	m.tokens[NormalizeProvider(provider)] = token
	return nil
}

func (m *MockTokenStore) GetToken(provider string) (string, error) {
	token, ok := m.tokens[NormalizeProvider(provider)]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (m *MockTokenStore) DeleteToken(provider string) error {
	key := NormalizeProvider(provider)
	if _, ok := m.tokens[key]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
