package internal

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/ghmd/pkg/config"

	"github.com/starford/ghmd/internal/site"
	"github.com/starford/ghmd/internal/sse"
	"github.com/starford/ghmd/internal/testutil"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestBuild_Options(t *testing.T) {
	src, _ := testutil.TestSource(t, map[string]string{
		"hello.md": "---\ntitle: Hello\ndate: 2024-01-01\n---\nHi.\n",
	})
	out := filepath.Join(t.TempDir(), "public")

	res, err := Build(context.Background(),
		WithConfig(NewDefaultConfig()),
		WithSourceDir(src),
		WithOutputDir(out),
		WithBaseURL("/blog"),
		WithLogger(discard()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Posts) != 1 {
		t.Fatalf("posts = %d", len(res.Posts))
	}
	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), `href="/blog/hello.html"`) {
		t.Errorf("base_url override not applied:\n%s", index)
	}
}

func TestBuild_RequiresConfig(t *testing.T) {
	if _, err := Build(context.Background(), WithLogger(discard())); err == nil {
		t.Fatal("missing config should fail")
	}
}

func TestBuild_MissingSource(t *testing.T) {
	_, err := Build(context.Background(),
		WithConfig(NewDefaultConfig()),
		WithSourceDir(filepath.Join(t.TempDir(), "absent")),
		WithOutputDir(t.TempDir()),
		WithLogger(discard()),
	)
	if !errors.Is(err, site.ErrNoSource) {
		t.Errorf("err = %v, want ErrNoSource", err)
	}
}

func TestRunner_RebuildRefreshesCatalogAndNotifies(t *testing.T) {
	src, _ := testutil.TestSource(t, map[string]string{
		"a.md": "---\ntitle: A\n---\nalpha\n",
	})
	out := filepath.Join(t.TempDir(), "output")
	db := testutil.TestCatalog(t)
	broker := sse.NewBroker(time.Minute)
	defer broker.Close()
	events := broker.Subscribe()

	settings := site.DefaultSettings()
	settings.Normalize(discard())
	run := &runner{
		builder: site.NewBuilder(settings, src, out, discard()),
		source:  src,
		output:  out,
		catalog: db,
		broker:  broker,
		logger:  discard(),
	}

	stats, err := run.buildStats(context.Background())
	if err != nil {
		t.Fatalf("buildStats: %v", err)
	}
	if stats.Posts != 1 || stats.Listed != 1 || stats.Output != out {
		t.Errorf("stats = %+v", stats)
	}
	if _, err := db.Get(context.Background(), "a.md"); err != nil {
		t.Errorf("catalog not refreshed: %v", err)
	}

	testutil.WriteTree(t, src, map[string]string{"b.md": "---\ntitle: [broken\n---\n"})
	if _, err := run.rebuild(context.Background()); err == nil {
		t.Fatal("malformed frontmatter should fail the rebuild")
	}
	if _, err := db.Get(context.Background(), "a.md"); err != nil {
		t.Errorf("failed build must keep the previous catalog: %v", err)
	}

	var seen []string
	timeout := time.After(time.Second)
	for len(seen) < 4 {
		select {
		case msg := <-events:
			seen = append(seen, string(msg))
		case <-timeout:
			t.Fatalf("events = %q", seen)
		}
	}
	if !strings.Contains(seen[1], sse.EventBuildCompleted) || !strings.Contains(seen[3], sse.EventBuildFailed) {
		t.Errorf("events = %q", seen)
	}
}

func TestInit_ScaffoldsOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blog")

	created, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v", created)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(filepath.Join(dir, site.ConfigFileName), cfg); err != nil {
		t.Fatalf("scaffolded config does not load: %v", err)
	}
	if cfg.Author != "Your Name" {
		t.Errorf("author = %q", cfg.Author)
	}

	post := filepath.Join(dir, "hello-world.md")
	if err := os.WriteFile(post, []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	created, err = Init(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 0 {
		t.Errorf("second Init created %v", created)
	}
	if data, _ := os.ReadFile(post); string(data) != "edited" {
		t.Error("Init overwrote an existing file")
	}

	out := filepath.Join(t.TempDir(), "output")
	res, err := Build(context.Background(), WithConfig(NewDefaultConfig()), WithSourceDir(dir),
		WithOutputDir(out), WithLogger(discard()))
	if err != nil {
		t.Fatalf("build scaffold: %v", err)
	}
	if len(res.Posts) != 1 {
		t.Errorf("posts = %d", len(res.Posts))
	}
}
