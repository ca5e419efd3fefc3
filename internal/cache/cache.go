// Package cache persists the client's working state between runs: the
// entity collections and preference as JSON values in a small SQLite
// key-value table, plus the "unsynced local changes" flag the engine checks
// at startup. The cache is always written before any remote work happens,
// so the UI never depends on the network.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/kwestin/listsync/internal/model"
)

// Fixed keys for the stored values.
const (
	keyLists       = "lists"
	keyTasks       = "tasks"
	keyPreferences = "preferences"
	keyDevicePrefs = "device_preferences"
	keyUnsynced    = "unsynced"
)

// Store is a SQLite-backed cache. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the cache database at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Path returns the database file path. The daemon watches its directory for
// writes by other processes.
func (s *Store) Path() string { return s.path }

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	// Fold the WAL back into the main file so other readers see a clean
	// single-file database.
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to checkpoint cache database: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.setRaw(ctx, key, string(data))
}

func (s *Store) setRaw(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO kv (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// getJSON reads and decodes a value. Returns false with no error when the
// key has never been written.
func (s *Store) getJSON(ctx context.Context, key string, out any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Lists returns the cached lists, or nil if none were ever written.
func (s *Store) Lists(ctx context.Context) ([]model.List, error) {
	var lists []model.List
	if _, err := s.getJSON(ctx, keyLists, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// SetLists replaces the cached lists.
func (s *Store) SetLists(ctx context.Context, lists []model.List) error {
	return s.setJSON(ctx, keyLists, lists)
}

// Tasks returns the cached tasks, or nil if none were ever written.
func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if _, err := s.getJSON(ctx, keyTasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetTasks replaces the cached tasks.
func (s *Store) SetTasks(ctx context.Context, tasks []model.Task) error {
	return s.setJSON(ctx, keyTasks, tasks)
}

// Preferences returns the cached sync preferences, or the defaults if none
// were ever written.
func (s *Store) Preferences(ctx context.Context) (model.Preferences, error) {
	prefs := model.DefaultPreferences()
	if _, err := s.getJSON(ctx, keyPreferences, &prefs); err != nil {
		return model.Preferences{}, err
	}
	return prefs, nil
}

// SetPreferences replaces the cached sync preferences.
func (s *Store) SetPreferences(ctx context.Context, prefs model.Preferences) error {
	return s.setJSON(ctx, keyPreferences, prefs)
}

// DevicePrefs returns the device-local preferences. These never sync.
func (s *Store) DevicePrefs(ctx context.Context) (model.DevicePrefs, error) {
	var prefs model.DevicePrefs
	if _, err := s.getJSON(ctx, keyDevicePrefs, &prefs); err != nil {
		return model.DevicePrefs{}, err
	}
	return prefs, nil
}

// SetDevicePrefs replaces the device-local preferences.
func (s *Store) SetDevicePrefs(ctx context.Context, prefs model.DevicePrefs) error {
	return s.setJSON(ctx, keyDevicePrefs, prefs)
}

// Unsynced reports whether local changes are waiting to be pushed.
func (s *Store) Unsynced(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", keyUnsynced).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", keyUnsynced, err)
	}
	return value == "1", nil
}

// SetUnsynced records whether local changes are waiting to be pushed.
func (s *Store) SetUnsynced(ctx context.Context, unsynced bool) error {
	value := "0"
	if unsynced {
		value = "1"
	}
	return s.setRaw(ctx, keyUnsynced, value)
}

// SaveState writes lists, tasks, and preferences in one transaction, so a
// crash mid-write never leaves the collections out of step with each other.
func (s *Store) SaveState(ctx context.Context, lists []model.List, tasks []model.Task, prefs model.Preferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO kv (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, kv := range []struct {
		key string
		val any
	}{
		{keyLists, lists},
		{keyTasks, tasks},
		{keyPreferences, prefs},
	} {
		data, err := json.Marshal(kv.val)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", kv.key, err)
		}
		if _, err := tx.ExecContext(ctx, query, kv.key, string(data), now); err != nil {
			return fmt.Errorf("failed to write %s: %w", kv.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache transaction: %w", err)
	}
	return nil
}

// Clear removes everything, including the unsynced flag and device
// preferences. Used on sign-out.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
