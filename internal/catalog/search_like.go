//go:build !sqlite_fts5

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// No FTS5: search scans the entries table with LIKE.
	return nil
}

func ftsClear(_ context.Context, _ *sql.Tx) error { return nil }

func ftsInsert(_ context.Context, _ *sql.Tx, _ Entry) error { return nil }

// Search performs a case-insensitive LIKE search over title, description,
// body and tags.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, url, title,
		       CASE WHEN description != '' THEN description ELSE substr(body, 1, 200) END
		FROM entries
		WHERE title LIKE ?1 ESCAPE '\'
		   OR description LIKE ?1 ESCAPE '\'
		   OR body LIKE ?1 ESCAPE '\'
		   OR EXISTS (SELECT 1 FROM entry_tags t WHERE t.path = entries.path AND t.tag LIKE ?1 ESCAPE '\')
		ORDER BY position
		LIMIT ?2
	`, like, limit)
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

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
