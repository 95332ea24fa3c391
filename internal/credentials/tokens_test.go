package credentials

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestMockTokenStore_RoundTrip(t *testing.T) {
	store := NewMockTokenStore()

	if err := store.SetToken("Hetzner", "hz-token-1"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	// Lookup is normalized; case must not matter.
	got, err := store.GetToken("hetzner")
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if got != "hz-token-1" {
		t.Errorf("GetToken = %q, want hz-token-1", got)
	}

	if err := store.DeleteToken("HETZNER"); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if _, err := store.GetToken("hetzner"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetToken after delete = %v, want ErrTokenNotFound", err)
	}
}

func TestMockTokenStore_DeleteMissing(t *testing.T) {
	store := NewMockTokenStore()
	if err := store.DeleteToken("hetzner"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("DeleteToken = %v, want ErrTokenNotFound", err)
	}
}

func TestKeyringTokenStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringTokenStore("gloski-cloud-test")

	if _, err := store.GetToken("hetzner"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("GetToken on empty store = %v, want ErrTokenNotFound", err)
	}

	if err := store.SetToken("hetzner", "hz-token-2"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	got, err := store.GetToken(" Hetzner ")
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if got != "hz-token-2" {
		t.Errorf("GetToken = %q, want hz-token-2", got)
	}

	if err := store.DeleteToken("hetzner"); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if err := store.DeleteToken("hetzner"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second DeleteToken = %v, want ErrTokenNotFound", err)
	}
}
