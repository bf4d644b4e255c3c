/*
Package sqlite provides a SQLite-backed implementation of the store.KV
persistence collaborator.

PURPOSE:
  Durable record storage for the planning engine. Every record is one row
  in a single key-value table; record semantics live in the typed stores
  layered on top (see store).

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging):
  - readers don't block on the single writer
  - better crash recovery

CONCURRENCY:
  A sync.RWMutex serializes writers. With PostgreSQL the database-level
  concurrency control would handle this instead.

USAGE:
  kv, err := sqlite.New("./planner.db")   // ":memory:" for tests
  if err != nil { ... }
  defer kv.Close()
  limits := store.NewLimitsStore(kv)

SEE ALSO:
  - store/kv.go: interface definition and key layout
  - store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// KV implements store.KV on a single SQLite table.
type KV struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path. Use ":memory:" for an
// in-memory database.
func New(path string) (*KV, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	kv := &KV{db: db}
	if err := kv.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return kv, nil
}

func (kv *KV) migrate() error {
	_, err := kv.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`)
	return err
}

// Close closes the database connection.
func (kv *KV) Close() error {
	return kv.db.Close()
}

func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	var value []byte
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (kv *KV) Remove(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	_, err := kv.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key)
	return err
}

func (kv *KV) Keys(ctx context.Context) ([]string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()

	rows, err := kv.db.QueryContext(ctx, `SELECT key FROM records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
