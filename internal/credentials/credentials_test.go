package credentials

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/gloski/cli/internal/profile"
)

func TestMockStore_RoundTrip(t *testing.T) {
	store := NewMockStore()

	cred := Credential{Method: profile.AuthAPIKey, Secret: "gk_abc123"}
	if err := store.Set("id-1", cred); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != cred {
		t.Errorf("Get = %+v, want %+v", got, cred)
	}
}

func TestMockStore_NotFound(t *testing.T) {
	store := NewMockStore()

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ReplaceSwitchesMethod(t *testing.T) {
	// A profile holds one credential: storing a bearer token must fully
	// displace a previously stored API key.
	store := NewMockStore()

	store.Set("id-1", Credential{Method: profile.AuthAPIKey, Secret: "gk_old"})
	store.Set("id-1", Credential{Method: profile.AuthBearer, Secret: "jwt-new"})

	got, err := store.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Method != profile.AuthBearer {
		t.Errorf("Method = %q, want bearer", got.Method)
	}
	if got.Secret != "jwt-new" {
		t.Errorf("Secret = %q, want jwt-new", got.Secret)
	}
}

func TestCredential_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cred    Credential
		wantErr bool
	}{
		{"api key", Credential{Method: profile.AuthAPIKey, Secret: "gk_x"}, false},
		{"bearer", Credential{Method: profile.AuthBearer, Secret: "jwt"}, false},
		{"unknown method", Credential{Method: "password", Secret: "x"}, true},
		{"empty secret", Credential{Method: profile.AuthAPIKey}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cred.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecode_SecretWithColons(t *testing.T) {
	cred := Credential{Method: profile.AuthBearer, Secret: "v1:ab:cd:ef"}

	got, err := decode(encode(cred))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Secret != "v1:ab:cd:ef" {
		t.Errorf("Secret = %q, want %q", got.Secret, "v1:ab:cd:ef")
	}
}

func TestDecode_MalformedEntry(t *testing.T) {
	if _, err := decode("no-separator"); err == nil {
		t.Error("expected error for entry without separator")
	}
	if _, err := decode("garbage:secret"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestKeyringStore_RoundTrip(t *testing.T) {
	keyring.MockInit()

	store := NewKeyringStore("gloski-test")

	cred := Credential{Method: profile.AuthAPIKey, Secret: "gk_abc"}
	if err := store.Set("id-1", cred); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != cred {
		t.Errorf("Get = %+v, want %+v", got, cred)
	}

	if err := store.Delete("id-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get("id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
