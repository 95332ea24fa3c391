package profile

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gloski/cli/internal/api"
)

const (
	appDir = "gloski"
	dbFile = "gloski.db"
)

// pathOverride, when non-empty, replaces the default database path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Repository defines the persistence interface for server profiles.
type Repository interface {
	// Save upserts a profile by ID.
	Save(p *Profile) error

	// Get returns a profile by ID, or ErrNotFound.
	Get(id string) (*Profile, error)

	// GetByName returns a profile by its unique name, or ErrNotFound.
	GetByName(name string) (*Profile, error)

	// Resolve accepts either a profile ID or a name.
	Resolve(nameOrID string) (*Profile, error)

	// List returns all profiles ordered by name.
	List() ([]Profile, error)

	// UpdateStatus records the latest observed connectivity. An online
	// status also bumps last_seen.
	UpdateStatus(id string, status api.Status) error

	// Touch bumps last_seen without changing the status, used by the live
	// stream when readings arrive.
	Touch(id string) error

	// Rename changes a profile's name, or returns ErrDuplicateName.
	Rename(id, newName string) error

	// Delete removes a profile, or returns ErrNotFound.
	Delete(id string) error

	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("profile: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open creates or opens the repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("profile: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("profile: failed to open database: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

// migrate creates the profiles table if it doesn't exist.
func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS profiles (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			endpoint    TEXT NOT NULL,
			auth_method TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'offline',
			last_seen   TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("profile: migration failed: %w", err)
	}
	return nil
}

// Save upserts a profile by ID. New profiles get created_at set; every save
// bumps updated_at.
func (r *SQLiteRepository) Save(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = api.StatusOffline
	}

	_, err := r.db.Exec(`
		INSERT INTO profiles (id, name, endpoint, auth_method, status, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name        = excluded.name,
			endpoint    = excluded.endpoint,
			auth_method = excluded.auth_method,
			status      = excluded.status,
			last_seen   = excluded.last_seen,
			updated_at  = excluded.updated_at`,
		p.ID, p.Name, p.Endpoint, string(p.Method), string(p.Status),
		formatTime(p.LastSeen), p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueNameViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("profile: upsert failed: %w", err)
	}
	return nil
}

// Get returns a profile by ID, or ErrNotFound.
func (r *SQLiteRepository) Get(id string) (*Profile, error) {
	return r.getWhere("id = ?", id)
}

// GetByName returns a profile by its unique name, or ErrNotFound.
func (r *SQLiteRepository) GetByName(name string) (*Profile, error) {
	return r.getWhere("name = ?", name)
}

// Resolve accepts either a profile ID or a name, trying the ID first.
func (r *SQLiteRepository) Resolve(nameOrID string) (*Profile, error) {
	p, err := r.Get(nameOrID)
	if err == nil {
		return p, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	return r.GetByName(nameOrID)
}

func (r *SQLiteRepository) getWhere(where string, arg any) (*Profile, error) {
	row := r.db.QueryRow(`
		SELECT id, name, endpoint, auth_method, status, last_seen, created_at, updated_at
		FROM profiles WHERE `+where, arg)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: query failed: %w", err)
	}
	return p, nil
}

// List returns all profiles ordered by name.
func (r *SQLiteRepository) List() ([]Profile, error) {
	rows, err := r.db.Query(`
		SELECT id, name, endpoint, auth_method, status, last_seen, created_at, updated_at
		FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("profile: query failed: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("profile: scan failed: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profile: iteration failed: %w", err)
	}
	return profiles, nil
}

// UpdateStatus records the latest observed connectivity. An online status
// also bumps last_seen, so "last seen" reads as "last reachable".
func (r *SQLiteRepository) UpdateStatus(id string, status api.Status) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var err error
	if status == api.StatusOnline {
		_, err = r.db.Exec(`
			UPDATE profiles SET status = ?, last_seen = ?, updated_at = ? WHERE id = ?`,
			string(status), now, now, id)
	} else {
		_, err = r.db.Exec(`
			UPDATE profiles SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return fmt.Errorf("profile: status update failed: %w", err)
	}
	return nil
}

// Touch bumps last_seen without changing the status.
func (r *SQLiteRepository) Touch(id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := r.db.Exec(`
		UPDATE profiles SET last_seen = ?, updated_at = ? WHERE id = ?`,
		now, now, id); err != nil {
		return fmt.Errorf("profile: touch failed: %w", err)
	}
	return nil
}

// Rename changes a profile's name, or returns ErrDuplicateName.
func (r *SQLiteRepository) Rename(id, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("profile: name is required")
	}

	result, err := r.db.Exec(`
		UPDATE profiles SET name = ?, updated_at = ? WHERE id = ?`,
		newName, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		if isUniqueNameViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("profile: rename failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a profile, or returns ErrNotFound.
func (r *SQLiteRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("profile: delete failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var p Profile
	var method, status, lastSeen, createdAt, updatedAt string

	if err := row.Scan(&p.ID, &p.Name, &p.Endpoint, &method, &status, &lastSeen, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Method = AuthMethod(method)
	p.Status = api.Status(status)
	p.LastSeen = parseTime(lastSeen)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// formatTime renders t for storage; the zero time stores as the empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// isUniqueNameViolation detects the profiles.name UNIQUE constraint. The
// sqlite driver exposes constraint failures only through the error text.
func isUniqueNameViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: profiles.name")
}
