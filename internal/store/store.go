// Package store is the durable key/value engine backing every Room's
// state: leases, locks, claims, auctions, presence, the event log, and
// everything else in the coordination data model. It is a typed
// get/put/delete/list(prefix) contract over a single SQLite table,
// driving SQLite through database/sql with WAL and a busy timeout so
// concurrent readers don't collide with the writer.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkern/swarmhub/internal/config"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(cfg config.StoreConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// WAL mode lets the dispatcher write while HTTP readers (stats,
	// timeline) scan concurrently; the busy timeout makes writers retry
	// instead of immediately failing with SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("exec kv migration: %w", err)
	}
	return nil
}

// PutRaw upserts a key with an already-marshaled JSON value.
func (s *Store) PutRaw(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// GetRaw returns the raw JSON value for a key, or ok=false if absent.
func (s *Store) GetRaw(key string) (value []byte, ok bool, err error) {
	var raw string
	err = s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(raw), true, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// RawEntry is one row of a prefix scan before value decoding.
type RawEntry struct {
	Key   string
	Value []byte
}

// ListRaw returns every key/value pair whose key starts with prefix,
// ordered ascending by key so event-log scans come back in commit order.
// SQLite's LIKE ignores ASCII case, so the case-sensitive instr check
// keeps keys that differ from prefix only in case out of the result.
func (s *Store) ListRaw(prefix string) ([]RawEntry, error) {
	rows, err := s.db.Query(
		`SELECT key, value FROM kv WHERE key LIKE ? ESCAPE '\' AND instr(key, ?) = 1 ORDER BY key ASC`,
		likePrefix(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var out []RawEntry
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, RawEntry{Key: key, Value: []byte(raw)})
	}
	return out, rows.Err()
}

// likePrefix escapes LIKE metacharacters in prefix and appends the
// wildcard, so a key containing literal '%' or '_' still scans correctly.
func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}

// Put marshals value as JSON and upserts it at key.
func Put[T any](s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.PutRaw(key, data)
}

// Get unmarshals the value stored at key into T. ok is false if the key
// is absent.
func Get[T any](s *Store, key string) (value T, ok bool, err error) {
	raw, ok, err := s.GetRaw(key)
	if err != nil || !ok {
		return value, ok, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return value, true, nil
}

// Entry is one decoded row of a prefix scan.
type Entry[T any] struct {
	Key   string
	Value T
}

// List decodes every key/value pair under prefix into T, skipping (and
// not failing on) any row whose value doesn't match the shape — a
// malformed record should never take down an entire scan.
func List[T any](s *Store, prefix string) ([]Entry[T], error) {
	raw, err := s.ListRaw(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Entry[T], 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r.Value, &v); err != nil {
			continue
		}
		out = append(out, Entry[T]{Key: r.Key, Value: v})
	}
	return out, nil
}
