package credentials

// MockStore is an in-memory credential store for testing.
type MockStore struct {
	entries map[string]Credential
}

func NewMockStore() *MockStore {
	return &MockStore{entries: make(map[string]Credential)}
}

func (m *MockStore) Set(profileID string, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	m.entries[profileID] = cred
	return nil
}

func (m *MockStore) Get(profileID string) (Credential, error) {
	cred, ok := m.entries[profileID]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

func (m *MockStore) Delete(profileID string) error {
	if _, ok := m.entries[profileID]; !ok {
		return ErrNotFound
	}
	delete(m.entries, profileID)
	return nil
}
