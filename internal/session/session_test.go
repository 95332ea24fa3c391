package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/config"
	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
)

func testManager(t *testing.T) (*Manager, *credentials.MockStore) {
	t.Helper()
	repo, err := profile.OpenAt(filepath.Join(t.TempDir(), "gloski.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	creds := credentials.NewMockStore()
	return NewManager(repo, creds), creds
}

func seedProfile(t *testing.T, m *Manager, creds *credentials.MockStore, endpoint string) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		ID:       "id-1",
		Name:     "web-1",
		Endpoint: endpoint,
		Method:   profile.AuthAPIKey,
	}
	if err := m.Profiles.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if creds != nil {
		creds.Set(p.ID, credentials.Credential{Method: profile.AuthAPIKey, Secret: "gk_test"})
	}
	return p
}

func TestClient_SendsStoredCredential(t *testing.T) {
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"authenticated":true}`))
	}))
	t.Cleanup(srv.Close)

	m, creds := testManager(t)
	seedProfile(t, m, creds, srv.URL)

	client, p, err := m.Client("web-1")
	if err != nil {
		t.Fatalf("Client failed: %v", err)
	}
	if p.ID != "id-1" {
		t.Errorf("resolved profile = %q, want id-1", p.ID)
	}

	if _, err := client.Auth.Status(context.Background()); err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if apiKey != "gk_test" {
		t.Errorf("X-API-Key = %q, want gk_test", apiKey)
	}
}

func TestClient_StatusFlowsIntoRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	t.Cleanup(srv.Close)

	m, creds := testManager(t)
	seedProfile(t, m, creds, srv.URL)

	client, _, err := m.Client("web-1")
	if err != nil {
		t.Fatalf("Client failed: %v", err)
	}

	_, err = client.Auth.Status(context.Background())
	if !api.IsError(err, api.ErrorCodeUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}

	stored, err := m.Profiles.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != api.StatusUnauthorized {
		t.Errorf("stored status = %q, want unauthorized", stored.Status)
	}
}

func TestClient_MissingCredential(t *testing.T) {
	m, _ := testManager(t)
	seedProfile(t, m, nil, "http://box:8080")

	_, _, err := m.Client("web-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, credentials.ErrNotFound) {
		t.Errorf("expected credential not found, got %v", err)
	}
}

func TestClient_UnknownProfile(t *testing.T) {
	m, _ := testManager(t)

	_, _, err := m.Client("ghost")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("expected profile.ErrNotFound, got %v", err)
	}
}

func TestSetCredential_KeepsMethodInStep(t *testing.T) {
	m, creds := testManager(t)
	p := seedProfile(t, m, creds, "http://box:8080")

	err := m.SetCredential(p, credentials.Credential{Method: profile.AuthBearer, Secret: "jwt-1"})
	if err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}

	stored, _ := m.Profiles.Get(p.ID)
	if stored.Method != profile.AuthBearer {
		t.Errorf("stored method = %q, want bearer", stored.Method)
	}

	cred, err := creds.Get(p.ID)
	if err != nil {
		t.Fatalf("Get credential failed: %v", err)
	}
	if cred.Secret != "jwt-1" {
		t.Errorf("secret = %q, want jwt-1", cred.Secret)
	}
}

func TestStream_OneChannelPerProfile(t *testing.T) {
	m, creds := testManager(t)
	p := seedProfile(t, m, creds, "http://box:8080")

	first := m.Stream(p)
	second := m.Stream(p)
	if first != second {
		t.Error("expected the same channel for repeated Stream calls")
	}
}

func TestProbe_NoCredentialNeeded(t *testing.T) {
	var apiKey, authz string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-API-Key")
		authz = r.Header.Get("Authorization")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	m, _ := testManager(t)
	p := seedProfile(t, m, nil, srv.URL)

	client := m.Probe(p)
	if _, err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if apiKey != "" || authz != "" {
		t.Errorf("probe sent credentials: X-API-Key=%q Authorization=%q", apiKey, authz)
	}

	stored, _ := m.Profiles.Get(p.ID)
	if stored.Status != api.StatusOnline {
		t.Errorf("stored status = %q, want online after healthy probe", stored.Status)
	}
}

func TestResolveOrDefault(t *testing.T) {
	config.SetPath(filepath.Join(t.TempDir(), "config.json"))
	t.Cleanup(config.ResetPath)

	m, creds := testManager(t)
	seedProfile(t, m, creds, "http://box:8080")

	if _, err := m.ResolveOrDefault(""); err == nil {
		t.Fatal("expected error when no default-host is configured")
	}

	cfg := &config.Config{DefaultHost: "web-1"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save config failed: %v", err)
	}

	p, err := m.ResolveOrDefault("")
	if err != nil {
		t.Fatalf("ResolveOrDefault failed: %v", err)
	}
	if p.Name != "web-1" {
		t.Errorf("resolved %q, want web-1", p.Name)
	}

	if _, err := m.ResolveOrDefault("ghost"); !errors.Is(err, profile.ErrNotFound) {
		t.Errorf("expected profile.ErrNotFound for explicit unknown host, got %v", err)
	}
}
