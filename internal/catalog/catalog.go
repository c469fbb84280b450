// Package catalog provides durable storage for saved search queries.
// Uses SQLite with WAL mode for concurrent read access.
//
// The catalog is a collaborator of the query core, not part of it:
// it stores the canonical JSON export and rebuilds queries through
// the ordinary FromJSON path, so a stored query round-trips exactly
// like one received over the wire.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sqx/internal/canonjson"
	"github.com/roach88/sqx/internal/query"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by Get and Delete for unknown keys.
var ErrNotFound = errors.New("query not found")

// Entry is one catalog listing row.
type Entry struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// Catalog is a SQLite-backed store of named queries.
type Catalog struct {
	db *sql.DB
}

// Open creates or opens a catalog database at the given path.
// Applies required pragmas and the schema automatically; safe to call
// on an existing database.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to catalog: %w", err)
	}

	// SQLite supports one writer at a time; a single connection
	// avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Save stores a query under its key, assigning a fresh UUID key when
// the query has none. Returns the key. Saving an existing key
// replaces the stored query.
func (c *Catalog) Save(ctx context.Context, q *query.SearchQuery) (string, error) {
	if q.Key == "" {
		q.Key = uuid.NewString()
	}

	encoded, err := canonjson.Marshal(q.ToJSON())
	if err != nil {
		return "", fmt.Errorf("encode query %q: %w", q.Key, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO queries (key, name, source, json) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			source = excluded.source,
			json = excluded.json
	`, q.Key, q.Name, q.ToQueryString(), string(encoded))
	if err != nil {
		return "", fmt.Errorf("save query %q: %w", q.Key, err)
	}
	return q.Key, nil
}

// Get loads a stored query by key. The query is rebuilt from its
// canonical JSON, so it is structurally equal to what was saved.
func (c *Catalog) Get(ctx context.Context, key string) (*query.SearchQuery, error) {
	var encoded string
	err := c.db.QueryRowContext(ctx,
		`SELECT json FROM queries WHERE key = ?`, key,
	).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get query %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get query %q: %w", key, err)
	}
	return query.FromJSONBytes([]byte(encoded))
}

// List returns all stored queries ordered by name then key.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, name, source, created_at FROM queries ORDER BY name, key`)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Name, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return entries, nil
}

// Delete removes a stored query. Deleting an unknown key returns
// ErrNotFound.
func (c *Catalog) Delete(ctx context.Context, key string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM queries WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete query %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete query %q: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("delete query %q: %w", key, ErrNotFound)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
