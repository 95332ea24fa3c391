package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// KeyringStore persists credentials in the OS keychain.
type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) Set(profileID string, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	return keyring.Set(k.serviceName, profileID, encode(cred))
}

func (k *KeyringStore) Get(profileID string) (Credential, error) {
	entry, err := keyring.Get(k.serviceName, profileID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, err
	}
	return decode(entry)
}

func (k *KeyringStore) Delete(profileID string) error {
	err := keyring.Delete(k.serviceName, profileID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
