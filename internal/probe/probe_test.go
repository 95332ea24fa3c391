package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gloski/cli/internal/api"
	"github.com/gloski/cli/internal/credentials"
	"github.com/gloski/cli/internal/profile"
	"github.com/gloski/cli/internal/session"
)

func testManager(t *testing.T) (*session.Manager, *credentials.MockStore) {
	t.Helper()
	repo, err := profile.OpenAt(filepath.Join(t.TempDir(), "gloski.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	creds := credentials.NewMockStore()
	return session.NewManager(repo, creds), creds
}

func seedHost(t *testing.T, m *session.Manager, creds *credentials.MockStore, id, name, endpoint string) {
	t.Helper()
	p := &profile.Profile{
		ID:       id,
		Name:     name,
		Endpoint: endpoint,
		Method:   profile.AuthAPIKey,
	}
	if err := m.Profiles.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if creds != nil {
		creds.Set(id, credentials.Credential{Method: profile.AuthAPIKey, Secret: "gk_" + id})
	}
}

// healthyAgent answers health checks and accepts any credential.
func healthyAgent(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			w.Write([]byte(`{"status":"ok","version":"1.4.0"}`))
		case "/api/auth/status":
			w.Write([]byte(`{"authenticated":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// rejectingAgent answers health checks but rejects every credential.
func rejectingAgent(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid API key"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadEndpoint returns a URL that nothing listens on.
func deadEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	return url
}

func TestSweep_ClassifiesHosts(t *testing.T) {
	m, creds := testManager(t)
	seedHost(t, m, creds, "id-1", "alpha", healthyAgent(t).URL)
	seedHost(t, m, creds, "id-2", "bravo", rejectingAgent(t).URL)
	seedHost(t, m, creds, "id-3", "charlie", deadEndpoint(t))

	results, err := New(m).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Profile.Name] = r
	}

	if got := byName["alpha"].Status; got != api.StatusOnline {
		t.Errorf("alpha status = %v, want online", got)
	}
	if byName["alpha"].Err != nil {
		t.Errorf("alpha err = %v, want nil", byName["alpha"].Err)
	}
	if byName["alpha"].Health == nil || byName["alpha"].Health.Version != "1.4.0" {
		t.Errorf("alpha health = %+v, want version 1.4.0", byName["alpha"].Health)
	}

	if got := byName["bravo"].Status; got != api.StatusUnauthorized {
		t.Errorf("bravo status = %v, want unauthorized", got)
	}
	if !api.IsError(byName["bravo"].Err, api.ErrorCodeUnauthorized) {
		t.Errorf("bravo err = %v, want unauthorized", byName["bravo"].Err)
	}

	if got := byName["charlie"].Status; got != api.StatusOffline {
		t.Errorf("charlie status = %v, want offline", got)
	}
	if byName["charlie"].Err == nil {
		t.Error("charlie err = nil, want network error")
	}
}

func TestSweep_PersistsStatuses(t *testing.T) {
	m, creds := testManager(t)
	seedHost(t, m, creds, "id-1", "alpha", healthyAgent(t).URL)
	seedHost(t, m, creds, "id-2", "bravo", rejectingAgent(t).URL)

	if _, err := New(m).Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	alpha, err := m.Profiles.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if alpha.Status != api.StatusOnline {
		t.Errorf("stored alpha status = %v, want online", alpha.Status)
	}

	bravo, err := m.Profiles.Get("id-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if bravo.Status != api.StatusUnauthorized {
		t.Errorf("stored bravo status = %v, want unauthorized", bravo.Status)
	}
}

func TestSweep_ResultsFollowRepositoryOrder(t *testing.T) {
	m, creds := testManager(t)
	srv := healthyAgent(t)
	// Insert out of order; List returns name order.
	seedHost(t, m, creds, "id-9", "zulu", srv.URL)
	seedHost(t, m, creds, "id-1", "alpha", srv.URL)
	seedHost(t, m, creds, "id-5", "mike", srv.URL)

	results, err := New(m, WithLimit(2)).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	want := []string{"alpha", "mike", "zulu"}
	for i, name := range want {
		if results[i].Profile.Name != name {
			t.Errorf("results[%d] = %q, want %q", i, results[i].Profile.Name, name)
		}
	}
}

func TestSweep_EmptyRepository(t *testing.T) {
	m, _ := testManager(t)
	results, err := New(m).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestOne_MissingCredentialStaysOnline(t *testing.T) {
	m, _ := testManager(t)
	seedHost(t, m, nil, "id-1", "alpha", healthyAgent(t).URL)

	p, err := m.Profiles.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	res := New(m).One(context.Background(), *p)
	if res.Status != api.StatusOnline {
		t.Errorf("status = %v, want online", res.Status)
	}
	if res.Err == nil {
		t.Error("expected missing-credential error, got nil")
	}
}

func TestSweep_HonoursContext(t *testing.T) {
	m, creds := testManager(t)
	seedHost(t, m, creds, "id-1", "alpha", healthyAgent(t).URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := New(m).Sweep(ctx); err == nil {
			t.Error("expected error from cancelled sweep")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not return after cancellation")
	}
}
