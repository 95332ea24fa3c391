package provision

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gloski/cli/internal/swrcache"
)

// metaOnePage is the pagination block list endpoints must carry so the SDK
// stops after the first page.
const metaOnePage = `"meta":{"pagination":{"page":1,"per_page":25,"previous_page":null,"next_page":null,"last_page":1,"total_entries":1}}`

// fakeCloud dispatches requests by "METHOD /path" and fails the test on
// anything unhandled.
func fakeCloud(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		h, ok := handlers[key]
		if !ok {
			t.Errorf("unexpected request: %s", key)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"not_found","message":"not found"}}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jsonResponse(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

// catalogProvisioner builds a Provisioner against the fake API. Catalog
// calls never touch sessions, so none are wired.
func catalogProvisioner(t *testing.T, srv *httptest.Server, opts ...Option) *Provisioner {
	t.Helper()
	opts = append(opts, WithClientOptions(hcloud.WithEndpoint(srv.URL)))
	return New("test-token", nil, opts...)
}

func TestServerTypes_MapsFields(t *testing.T) {
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /server_types": jsonResponse(`{
			"server_types": [{
				"id": 22,
				"name": "cpx11",
				"description": "CPX 11",
				"cores": 2,
				"memory": 2.0,
				"disk": 40,
				"architecture": "x86",
				"prices": [{
					"location": "fsn1",
					"price_hourly": {"net": "0.0052", "gross": "0.0062"},
					"price_monthly": {"net": "3.2900", "gross": "3.9151"}
				}],
				"locations": [
					{"id": 1, "name": "fsn1", "deprecation": null},
					{"id": 2, "name": "nbg1", "deprecation": null}
				]
			}],
			` + metaOnePage + `}`),
	})

	got, err := catalogProvisioner(t, srv).ServerTypes(context.Background())
	if err != nil {
		t.Fatalf("ServerTypes failed: %v", err)
	}

	want := []ServerType{{
		ID:           "22",
		Name:         "cpx11",
		Description:  "CPX 11",
		Cores:        2,
		Memory:       2,
		Disk:         40,
		Architecture: "x86",
		PriceMonthly: "3.9151",
		PriceHourly:  "0.0062",
		Locations:    []string{"fsn1", "nbg1"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("server types mismatch (-want +got):\n%s", diff)
	}
}

func TestServerTypes_FallsBackToPriceLocations(t *testing.T) {
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /server_types": jsonResponse(`{
			"server_types": [{
				"id": 22,
				"name": "cpx11",
				"cores": 2,
				"memory": 2.0,
				"disk": 40,
				"prices": [
					{"location": "nbg1", "price_hourly": {"gross": "0.0062"}, "price_monthly": {"gross": "3.9151"}},
					{"location": "fsn1", "price_hourly": {"gross": "0.0062"}, "price_monthly": {"gross": "3.9151"}},
					{"location": "fsn1", "price_hourly": {"gross": "0.0062"}, "price_monthly": {"gross": "3.9151"}}
				]
			}],
			` + metaOnePage + `}`),
	})

	got, err := catalogProvisioner(t, srv).ServerTypes(context.Background())
	if err != nil {
		t.Fatalf("ServerTypes failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 server type, got %d", len(got))
	}

	// Deduplicated and sorted.
	if diff := cmp.Diff([]string{"fsn1", "nbg1"}, got[0].Locations); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestLocations_MapsFields(t *testing.T) {
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /locations": jsonResponse(`{
			"locations": [{
				"id": 1,
				"name": "fsn1",
				"description": "Falkenstein DC Park 1",
				"country": "DE",
				"city": "Falkenstein"
			}],
			` + metaOnePage + `}`),
	})

	got, err := catalogProvisioner(t, srv).Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations failed: %v", err)
	}

	want := []Location{{
		ID:          "1",
		Name:        "fsn1",
		Description: "Falkenstein DC Park 1",
		Country:     "DE",
		City:        "Falkenstein",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestImages_RequestsAvailableOnly(t *testing.T) {
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /images": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("status"); got != "available" {
				t.Errorf("status query = %q, want %q", got, "available")
			}
			jsonResponse(`{
				"images": [{
					"id": 114690387,
					"name": "ubuntu-24.04",
					"description": "Ubuntu 24.04",
					"type": "system",
					"status": "available",
					"os_flavor": "ubuntu",
					"architecture": "x86"
				}],
				` + metaOnePage + `}`)(w, r)
		},
	})

	got, err := catalogProvisioner(t, srv).Images(context.Background())
	if err != nil {
		t.Fatalf("Images failed: %v", err)
	}

	want := []Image{{
		ID:           "114690387",
		Name:         "ubuntu-24.04",
		Description:  "Ubuntu 24.04",
		Type:         "system",
		OSFlavor:     "ubuntu",
		Architecture: "x86",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestSSHKeys_MapsFields(t *testing.T) {
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /ssh_keys": jsonResponse(`{
			"ssh_keys": [{
				"id": 5,
				"name": "deploy",
				"fingerprint": "b7:2f:30:a0:2f:6c:58:6c:21:04:58:61:ba:06:3b:2f"
			}],
			` + metaOnePage + `}`),
	})

	got, err := catalogProvisioner(t, srv).SSHKeys(context.Background())
	if err != nil {
		t.Fatalf("SSHKeys failed: %v", err)
	}

	want := []SSHKey{{
		ID:          "5",
		Name:        "deploy",
		Fingerprint: "b7:2f:30:a0:2f:6c:58:6c:21:04:58:61:ba:06:3b:2f",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ssh keys mismatch (-want +got):\n%s", diff)
	}
}

func TestServerTypes_SecondCallServedFromCache(t *testing.T) {
	requests := 0
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /server_types": func(w http.ResponseWriter, r *http.Request) {
			requests++
			jsonResponse(`{
				"server_types": [{"id": 22, "name": "cpx11", "cores": 2, "memory": 2.0, "disk": 40}],
				` + metaOnePage + `}`)(w, r)
		},
	})

	p := catalogProvisioner(t, srv, WithCache(swrcache.New(t.TempDir())))

	for i := 0; i < 2; i++ {
		if _, err := p.ServerTypes(context.Background()); err != nil {
			t.Fatalf("ServerTypes call %d failed: %v", i+1, err)
		}
	}

	if requests != 1 {
		t.Errorf("API requests = %d, want 1 (second call cached)", requests)
	}
}

func TestInvalidateCatalog_ForcesRefetch(t *testing.T) {
	requests := 0
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /locations": func(w http.ResponseWriter, r *http.Request) {
			requests++
			jsonResponse(`{"locations": [{"id": 1, "name": "fsn1"}], ` + metaOnePage + `}`)(w, r)
		},
	})

	p := catalogProvisioner(t, srv, WithCache(swrcache.New(t.TempDir())))

	if _, err := p.Locations(context.Background()); err != nil {
		t.Fatalf("first Locations failed: %v", err)
	}
	if err := p.InvalidateCatalog(); err != nil {
		t.Fatalf("InvalidateCatalog failed: %v", err)
	}
	if _, err := p.Locations(context.Background()); err != nil {
		t.Fatalf("second Locations failed: %v", err)
	}

	if requests != 2 {
		t.Errorf("API requests = %d, want 2 after invalidation", requests)
	}
}

func TestServerTypes_Unauthorized(t *testing.T) {
	srv := fakeCloud(t, map[string]http.HandlerFunc{
		"GET /server_types": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"unauthorized","message":"unable to authenticate"}}`))
		},
	})

	_, err := catalogProvisioner(t, srv).ServerTypes(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
