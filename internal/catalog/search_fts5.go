//go:build sqlite_fts5

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			path UNINDEXED,
			title,
			description,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts`); err != nil {
		return fmt.Errorf("catalog: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(ctx context.Context, tx *sql.Tx, e Entry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO entries_fts (path, title, description, body, tags) VALUES (?, ?, ?, ?, ?)`,
		e.Path, e.Title, e.Description, e.Body, strings.Join(e.Tags, " "))
	if err != nil {
		return fmt.Errorf("catalog: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns hits with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.path,
		       e.url,
		       e.title,
		       snippet(entries_fts, 3, '<b>', '</b>', '...', 32)
		FROM entries_fts f
		JOIN entries e ON e.path = f.path
		WHERE entries_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.URL, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ftsQuery quotes every term so user input cannot reach the FTS5 query syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}
