// Package testutil provides shared test helpers for source trees, built
// sites and catalogs.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ghmd/internal/catalog"
	"github.com/starford/ghmd/internal/site"
	"github.com/starford/ghmd/internal/storage"
)

// TestCatalog opens a catalog in a temporary file that is removed with the test.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteTree writes files (slash-separated relative path → content) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestSource creates a temporary source directory holding files.
func TestSource(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, files)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Site is a built fixture site with its catalog filled from the build.
type Site struct {
	SourceDir string
	OutputDir string
	Source    storage.Provider
	Result    *site.Result
	Catalog   *catalog.DB
}

// BuildSite writes files into a fresh source directory, builds it with
// default settings and loads the result into a temporary catalog.
func BuildSite(t *testing.T, files map[string]string) *Site {
	t.Helper()
	src, store := TestSource(t, files)
	out := filepath.Join(t.TempDir(), "output")

	logger := slog.New(slog.DiscardHandler)
	settings := site.DefaultSettings()
	settings.Normalize(logger)
	b := site.NewBuilder(settings, src, out, logger)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	db := TestCatalog(t)
	if err := db.Replace(context.Background(), catalog.FromResult(res, src)); err != nil {
		t.Fatalf("catalog replace: %v", err)
	}
	return &Site{SourceDir: src, OutputDir: out, Source: store, Result: res, Catalog: db}
}
