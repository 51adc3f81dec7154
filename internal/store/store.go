// Package store persists session credentials and UI preferences between
// runs. It is a small key/value layer over a local SQLite database; values
// round-trip through JSON. Persistence is best-effort and never load-bearing:
// reads fall back to defaults and writes degrade to no-ops when the backing
// store is unavailable.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFileName = "prefs.sqlite"

type Store struct {
	Dir string
	Log *slog.Logger
}

// ConfigDir resolves the refero data directory: $REFERO_DIR when set,
// otherwise ~/.refero.
func ConfigDir() (string, error) {
	if dir := os.Getenv("REFERO_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".refero"), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) dbPath() string {
	return filepath.Join(s.Dir, dbFileName)
}

func (s Store) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s Store) open(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.dbPath())
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS prefs (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Get reads key into out, reporting whether a stored value was found and
// decoded. Missing keys, corrupt values and an unavailable store all report
// false, leaving out untouched so the caller's default survives.
func (s Store) Get(ctx context.Context, key string, out any) bool {
	db, err := s.open(ctx)
	if err != nil {
		s.logger().Debug("prefs open failed", "error", err)
		return false
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, `SELECT v FROM prefs WHERE k = ?`, key).Scan(&raw)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger().Debug("prefs read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger().Debug("prefs value corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores key as JSON. Best-effort: failures are logged and dropped.
func (s Store) Set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger().Debug("prefs encode failed", "key", key, "error", err)
		return
	}
	db, err := s.open(ctx)
	if err != nil {
		s.logger().Debug("prefs open failed", "error", err)
		return
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO prefs(k, v) VALUES(?, ?)`, key, string(raw)); err != nil {
		s.logger().Debug("prefs write failed", "key", key, "error", err)
	}
}

// Remove deletes a key. Best-effort.
func (s Store) Remove(ctx context.Context, key string) {
	db, err := s.open(ctx)
	if err != nil {
		return
	}
	defer db.Close()
	_, _ = db.ExecContext(ctx, `DELETE FROM prefs WHERE k = ?`, key)
}

// Clear drops all app keys. Best-effort.
func (s Store) Clear(ctx context.Context) {
	db, err := s.open(ctx)
	if err != nil {
		return
	}
	defer db.Close()
	_, _ = db.ExecContext(ctx, `DELETE FROM prefs WHERE k LIKE 'refero-%'`)
}
