package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

var _ Storage = (*Postgres)(nil)

// Postgres stores items in a shared table, partitioned by namespace. Clients configured with
// the same namespace share one logical store, the way browser tabs share an origin.
type Postgres struct {
	db        *sql.DB
	namespace string
}

// OpenPostgres connects with the lib/pq driver and prepares the schema.
func OpenPostgres(databaseURL, namespace string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := NewPostgres(db, namespace)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres wraps an existing connection pool and ensures the schema exists.
func NewPostgres(db *sql.DB, namespace string) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("storage namespace is required")
	}
	s := &Postgres{db: db, namespace: namespace}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Postgres) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS dashboard_storage (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure dashboard_storage schema: %w", err)
	}
	return nil
}

func (s *Postgres) GetItem(key string) (string, bool, error) {
	const q = `SELECT value FROM dashboard_storage WHERE namespace = $1 AND key = $2`
	var value string
	err := s.db.QueryRow(q, s.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query storage item: %w", err)
	}
	return value, true, nil
}

func (s *Postgres) SetItem(key, value string) error {
	const q = `
INSERT INTO dashboard_storage (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.db.Exec(q, s.namespace, key, value); err != nil {
		return fmt.Errorf("upsert storage item: %w", err)
	}
	return nil
}

func (s *Postgres) RemoveItem(key string) error {
	const q = `DELETE FROM dashboard_storage WHERE namespace = $1 AND key = $2`
	if _, err := s.db.Exec(q, s.namespace, key); err != nil {
		return fmt.Errorf("delete storage item: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Postgres) Close() error {
	return s.db.Close()
}
