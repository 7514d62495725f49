package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/starford/ghmd/internal/apperr"
	"github.com/starford/ghmd/internal/models"
	"github.com/starford/ghmd/internal/site"
	"github.com/starford/ghmd/internal/tags"
)

// Entry kinds.
const (
	KindPost = "post"
	KindHTML = "html"
)

// Entry is one published content item.
type Entry struct {
	// Path is relative to the source directory.
	Path        string     `json:"path"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Kind        string     `json:"kind"`
	Date        *time.Time `json:"date,omitempty"`
	Tags        []string   `json:"tags"`
	Description string     `json:"description,omitempty"`
	Body        string     `json:"-"`
	Checksum    string     `json:"checksum"`
	// Listed reports whether the item appears on the index pages.
	Listed bool `json:"listed"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TagCount is a tag with the number of listed items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// FromResult converts a build result into catalog entries. Listed items
// keep the index order; unlisted posts follow.
func FromResult(res *site.Result, sourceRoot string) []Entry {
	listed := make(map[models.Listable]struct{}, len(res.Listed))
	for _, item := range res.Listed {
		listed[item] = struct{}{}
	}

	entries := make([]Entry, 0, len(res.Posts)+len(res.HTMLPages))
	for _, item := range res.Listed {
		entries = append(entries, entryOf(item, sourceRoot, true))
	}
	for _, p := range res.Posts {
		if _, ok := listed[p]; !ok {
			entries = append(entries, entryOf(p, sourceRoot, false))
		}
	}
	return entries
}

func entryOf(item models.Listable, sourceRoot string, isListed bool) Entry {
	e := Entry{
		URL:         item.Link(),
		Title:       item.ListTitle(),
		Date:        item.ListDate(),
		Tags:        item.ListTags(),
		Description: item.Summary(),
		Listed:      isListed,
	}
	switch v := item.(type) {
	case *models.Post:
		e.Kind = KindPost
		e.Path = relPath(sourceRoot, v.SourcePath)
		e.Body = v.Body
		e.Checksum = v.Checksum
	case *models.HtmlPage:
		e.Kind = KindHTML
		e.Path = relPath(sourceRoot, v.SourcePath)
		e.Checksum = v.Checksum
	}
	return e
}

func relPath(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(p)
}

// Replace swaps the catalog contents for entries in one transaction.
func (db *DB) Replace(ctx context.Context, entries []Entry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags`); err != nil {
		return fmt.Errorf("catalog: clear tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("catalog: clear entries: %w", err)
	}
	if err := ftsClear(ctx, tx); err != nil {
		return err
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (path, url, title, kind, date, description, body, checksum, listed, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("catalog: prepare entry insert: %w", err)
	}
	defer entryStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO entry_tags (path, tag, pos) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for i, e := range entries {
		var date sql.NullString
		if e.Date != nil {
			date = sql.NullString{String: e.Date.Format(time.RFC3339Nano), Valid: true}
		}
		if _, err := entryStmt.ExecContext(ctx,
			e.Path, e.URL, e.Title, e.Kind, date, e.Description, e.Body, e.Checksum, e.Listed, i,
		); err != nil {
			return fmt.Errorf("catalog: insert %s: %w", e.Path, err)
		}
		for j, tag := range e.Tags {
			if _, err := tagStmt.ExecContext(ctx, e.Path, tag, j); err != nil {
				return fmt.Errorf("catalog: insert tag %s: %w", tag, err)
			}
		}
		if err := ftsInsert(ctx, tx, e); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const selectEntry = `SELECT path, url, title, kind, date, description, body, checksum, listed FROM entries`

// Get returns the entry at path or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, path string) (*Entry, error) {
	row := db.conn.QueryRowContext(ctx, selectEntry+` WHERE path = ?`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", path, err)
	}
	if e.Tags, err = db.tagsOf(ctx, e.Path); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns listed entries in index order, optionally filtered by tag,
// together with the total number of matches.
func (db *DB) List(ctx context.Context, tag string, limit, offset int) ([]Entry, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ` WHERE listed = 1`
	args := []any{}
	if tag != "" {
		where += ` AND EXISTS (SELECT 1 FROM entry_tags t WHERE t.path = entries.path AND t.tag = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, selectEntry+where+` ORDER BY position LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("catalog: scan: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	for i := range out {
		if out[i].Tags, err = db.tagsOf(ctx, out[i].Path); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// Tags returns every tag used by listed entries, sorted by name.
func (db *DB) Tags(ctx context.Context) ([]TagCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.tag, count(*)
		FROM entry_tags t
		JOIN entries e ON e.path = t.path
		WHERE e.listed = 1
		GROUP BY t.tag
		ORDER BY t.tag
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: tags: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		tc.Slug = tags.Slugify(tc.Tag)
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (db *DB) tagsOf(ctx context.Context, path string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT tag FROM entry_tags WHERE path = ? ORDER BY pos`, path)
	if err != nil {
		return nil, fmt.Errorf("catalog: tags of %s: %w", path, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e    Entry
		date sql.NullString
	)
	if err := s.Scan(&e.Path, &e.URL, &e.Title, &e.Kind, &date, &e.Description, &e.Body, &e.Checksum, &e.Listed); err != nil {
		return nil, err
	}
	if date.Valid {
		if t, err := time.Parse(time.RFC3339Nano, date.String); err == nil {
			e.Date = &t
		}
	}
	return &e, nil
}
