package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/starford/ghmd/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Title != "My Blog" || !cfg.ShowTOC || cfg.TOCMinHeadings != 3 || cfg.BaseURL != "/" {
		t.Errorf("unexpected defaults: %+v", cfg.Settings)
	}
}

func TestHTTPConfig_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("out of range port should fail validation")
	}
}

func TestApplicationConfig_InvalidLogFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown log format should fail validation")
	}
}

func TestLoad_FlatKeysAndAppSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghmd.config.yml")
	t.Setenv("GHMD_TEST_AUTHOR", "Robin")
	content := `title: "Field Notes"
author: "${GHMD_TEST_AUTHOR}"
show_toc: false
max_posts_per_index_page: 10
font: manrope
app:
  log_level: debug
  http:
    port: 9090
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Normalize(slog.New(slog.DiscardHandler))

	if cfg.Title != "Field Notes" || cfg.Author != "Robin" {
		t.Errorf("title/author = %q/%q", cfg.Title, cfg.Author)
	}
	if cfg.ShowTOC {
		t.Error("show_toc should be false")
	}
	if !cfg.ShowDate {
		t.Error("unset keys keep their defaults")
	}
	if cfg.MaxPostsPerIndexPage != 10 {
		t.Errorf("max_posts_per_index_page = %d", cfg.MaxPostsPerIndexPage)
	}
	if cfg.FontBody != "manrope" {
		t.Errorf("font_body = %q, want migrated legacy font", cfg.FontBody)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yml"), cfg)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if found {
		t.Error("found should be false for a missing file")
	}
	if cfg.Title != "My Blog" {
		t.Errorf("title = %q", cfg.Title)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghmd.config.yml")
	if err := os.WriteFile(path, []byte("toc_min_headings: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := pkgconfig.Load(path, NewDefaultConfig()); err == nil {
		t.Fatal("negative toc_min_headings should fail validation")
	}
}
