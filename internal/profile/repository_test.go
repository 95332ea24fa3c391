package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gloski/cli/internal/api"
)

func tempRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gloski.db")
	r, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testProfile(id, name string) *Profile {
	return &Profile{
		ID:       id,
		Name:     name,
		Endpoint: "http://box:8080",
		Method:   AuthAPIKey,
	}
}

func TestGet_NotFound(t *testing.T) {
	r := tempRepo(t)

	_, err := r.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSave_Insert(t *testing.T) {
	r := tempRepo(t)

	p := testProfile("id-1", "web-1")
	if err := r.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if p.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
	if p.Status != api.StatusOffline {
		t.Errorf("expected new profiles to default to offline, got %q", p.Status)
	}
}

func TestSave_Upsert(t *testing.T) {
	r := tempRepo(t)

	p := testProfile("id-1", "web-1")
	if err := r.Save(p); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	p.Endpoint = "https://box.example.com"
	p.Method = AuthBearer
	if err := r.Save(p); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := r.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Endpoint != "https://box.example.com" {
		t.Errorf("expected updated endpoint, got %q", got.Endpoint)
	}
	if got.Method != AuthBearer {
		t.Errorf("expected updated method, got %q", got.Method)
	}

	all, err := r.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected single row after upsert, got %d", len(all))
	}
}

func TestSave_DuplicateName(t *testing.T) {
	r := tempRepo(t)

	if err := r.Save(testProfile("id-1", "web-1")); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	err := r.Save(testProfile("id-2", "web-1"))
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestSave_RejectsInvalidProfile(t *testing.T) {
	r := tempRepo(t)

	tests := []struct {
		name    string
		profile *Profile
	}{
		{"missing name", &Profile{ID: "id-1", Endpoint: "http://box:8080", Method: AuthAPIKey}},
		{"bad endpoint scheme", &Profile{ID: "id-1", Name: "x", Endpoint: "ftp://box", Method: AuthAPIKey}},
		{"no host", &Profile{ID: "id-1", Name: "x", Endpoint: "http://", Method: AuthAPIKey}},
		{"bad method", &Profile{ID: "id-1", Name: "x", Endpoint: "http://box:8080", Method: "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Save(tt.profile); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestResolve_ByIDAndName(t *testing.T) {
	r := tempRepo(t)
	r.Save(testProfile("id-1", "web-1"))

	byID, err := r.Resolve("id-1")
	if err != nil {
		t.Fatalf("Resolve by ID failed: %v", err)
	}
	if byID.Name != "web-1" {
		t.Errorf("expected web-1, got %q", byID.Name)
	}

	byName, err := r.Resolve("web-1")
	if err != nil {
		t.Fatalf("Resolve by name failed: %v", err)
	}
	if byName.ID != "id-1" {
		t.Errorf("expected id-1, got %q", byName.ID)
	}

	if _, err := r.Resolve("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_OrderedByName(t *testing.T) {
	r := tempRepo(t)
	r.Save(testProfile("id-1", "zulu"))
	r.Save(testProfile("id-2", "alpha"))
	r.Save(testProfile("id-3", "mike"))

	all, err := r.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(all))
	}

	want := []string{"alpha", "mike", "zulu"}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("all[%d].Name = %q, want %q", i, all[i].Name, name)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	r := tempRepo(t)
	r.Save(testProfile("id-1", "web-1"))

	if err := r.UpdateStatus("id-1", api.StatusOnline); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := r.Get("id-1")
	if got.Status != api.StatusOnline {
		t.Errorf("Status = %q, want online", got.Status)
	}
	if got.LastSeen.IsZero() {
		t.Error("expected online status to bump LastSeen")
	}

	seenAt := got.LastSeen
	if err := r.UpdateStatus("id-1", api.StatusOffline); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ = r.Get("id-1")
	if got.Status != api.StatusOffline {
		t.Errorf("Status = %q, want offline", got.Status)
	}
	if !got.LastSeen.Equal(seenAt) {
		t.Error("offline status must not change LastSeen")
	}
}

func TestTouch(t *testing.T) {
	r := tempRepo(t)
	r.Save(testProfile("id-1", "web-1"))

	if err := r.Touch("id-1"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	got, _ := r.Get("id-1")
	if got.LastSeen.IsZero() {
		t.Error("expected Touch to set LastSeen")
	}
	if got.Status != api.StatusOffline {
		t.Errorf("Touch must not change status, got %q", got.Status)
	}
}

func TestRename(t *testing.T) {
	r := tempRepo(t)
	r.Save(testProfile("id-1", "web-1"))
	r.Save(testProfile("id-2", "web-2"))

	if err := r.Rename("id-1", "frontend"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	got, _ := r.Get("id-1")
	if got.Name != "frontend" {
		t.Errorf("Name = %q, want frontend", got.Name)
	}

	if err := r.Rename("id-2", "frontend"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	if err := r.Rename("missing", "anything"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	r := tempRepo(t)
	r.Save(testProfile("id-1", "web-1"))

	if err := r.Delete("id-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := r.Get("id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := r.Delete("id-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for repeat delete, got %v", err)
	}
}

func TestSQLiteRepository_Persistence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gloski.db")

	// Write with one repository instance.
	r1, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	r1.Save(testProfile("id-1", "web-1"))
	r1.Close()

	// Read with a new repository instance.
	r2, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	defer r2.Close()

	got, err := r2.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "web-1" {
		t.Errorf("expected persisted profile web-1, got %q", got.Name)
	}
}

func TestSQLiteRepository_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "gloski.db")
	r, err := OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt failed to create nested directory: %v", err)
	}
	defer r.Close()

	if err := r.Save(testProfile("id-1", "web-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist at %s, got error: %v", path, err)
	}
}
