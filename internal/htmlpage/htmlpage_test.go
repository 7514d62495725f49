package htmlpage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePage(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_TitleAndDescription(t *testing.T) {
	root := t.TempDir()
	path := writePage(t, root, "pages/demo.html", `<!doctype html>
<html><head>
  <title>  Tom &amp; Jerry  </title>
  <META name="description" content="A cartoon page">
</head><body><title>Second</title></body></html>`)

	mtime := time.Date(2023, 7, 1, 14, 30, 15, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	page, err := New().Parse(path, root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Title != "Tom & Jerry" {
		t.Errorf("title = %q, want %q", page.Title, "Tom & Jerry")
	}
	if page.Description != "A cartoon page" {
		t.Errorf("description = %q", page.Description)
	}
	if page.OutputPath != "pages/demo.html" {
		t.Errorf("output path = %q", page.OutputPath)
	}
	if page.Link() != "/pages/demo.html" {
		t.Errorf("link = %q", page.Link())
	}
	if page.Slug != "demo" {
		t.Errorf("slug = %q", page.Slug)
	}
	if page.Date == nil || !page.Date.Equal(mtime) {
		t.Errorf("date = %v, want %v", page.Date, mtime)
	}
	if tags := page.ListTags(); tags == nil || len(tags) != 0 {
		t.Errorf("ListTags = %#v, want empty slice", tags)
	}
	if !page.IsHTML() {
		t.Error("IsHTML should be true")
	}
}

func TestParse_FallbackTitle(t *testing.T) {
	root := t.TempDir()
	path := writePage(t, root, "my_cool-page.html", "<p>no head</p>")

	page, err := New().Parse(path, root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Title != "My Cool Page" {
		t.Errorf("title = %q, want %q", page.Title, "My Cool Page")
	}
	if page.Description != "" {
		t.Errorf("description = %q, want empty", page.Description)
	}
}

func TestParse_EmptyTitleFallsBack(t *testing.T) {
	root := t.TempDir()
	path := writePage(t, root, "about.html", "<title>   </title>")

	page, err := New().Parse(path, root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if page.Title != "About" {
		t.Errorf("title = %q, want About", page.Title)
	}
}

func TestParse_MissingFile(t *testing.T) {
	root := t.TempDir()
	_, err := New().Parse(filepath.Join(root, "gone.html"), root)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}
