// Package catalog keeps a SQLite listing of the last build so the dev server
// and the MCP tools can list, search and inspect content without reparsing.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	path        TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL,
	date        TEXT,
	description TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	listed      INTEGER NOT NULL DEFAULT 0,
	position    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS entry_tags (
	path TEXT NOT NULL REFERENCES entries(path) ON DELETE CASCADE,
	tag  TEXT NOT NULL,
	pos  INTEGER NOT NULL,
	UNIQUE(path, tag)
);

CREATE INDEX IF NOT EXISTS idx_entries_listed ON entries(listed, position);
CREATE INDEX IF NOT EXISTS idx_entry_tags_tag ON entry_tags(tag);
`

// Store is the read/write surface used by the dev server and MCP tools.
type Store interface {
	Replace(ctx context.Context, entries []Entry) error
	Get(ctx context.Context, path string) (*Entry, error)
	List(ctx context.Context, tag string, limit, offset int) ([]Entry, int, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Tags(ctx context.Context) ([]TagCount, error)
	Close() error
}

var _ Store = (*DB)(nil)

// DB wraps a sql.DB with catalog operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema. The
// special path ":memory:" gives a private in-memory catalog.
func Open(dsn string) (*DB, error) {
	memory := dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")

	params := "_busy_timeout=5000&_foreign_keys=on"
	if !memory {
		params = "_journal_mode=WAL&" + params
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	conn, err := sql.Open("sqlite3", dsn+sep+params)
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
