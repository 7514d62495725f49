// Package internal wires the content pipeline into the build, serve, mcp
// and init commands.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ghmd/internal/api"
	"github.com/starford/ghmd/internal/catalog"
	"github.com/starford/ghmd/internal/mcpserver"
	"github.com/starford/ghmd/internal/site"
	"github.com/starford/ghmd/internal/sse"
	"github.com/starford/ghmd/internal/storage"
	"github.com/starford/ghmd/internal/watch"
)

// Default directories, relative to the working directory.
const (
	DefaultSourceDir = "blog"
	DefaultOutputDir = "output"
)

var stderr io.Writer = os.Stderr

func newApplication(opts ...Option) (*application, error) {
	app := &application{
		sourceDir: DefaultSourceDir,
		outputDir: DefaultOutputDir,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = app.config.App.NewLogger()
	}
	if app.baseURL != nil {
		app.config.BaseURL = *app.baseURL
		app.logger.Info("base_url overridden", slog.String("base_url", *app.baseURL))
	}
	app.config.Normalize(app.logger)
	return app, nil
}

func (a *application) builder(opts ...site.Option) *site.Builder {
	return site.NewBuilder(a.config.Settings, a.sourceDir, a.outputDir, a.logger, opts...)
}

// Build generates the site once.
func Build(ctx context.Context, opts ...Option) (*site.Result, error) {
	app, err := newApplication(opts...)
	if err != nil {
		return nil, err
	}
	if err := site.Check(app.sourceDir); err != nil {
		return nil, err
	}
	return app.builder().Build(ctx)
}

// runner serializes builds and publishes each result to the catalog and to
// live-reload clients.
type runner struct {
	mu      sync.Mutex
	builder *site.Builder
	source  string
	output  string
	catalog catalog.Store
	broker  *sse.Broker
	logger  *slog.Logger
}

func (r *runner) rebuild(ctx context.Context) (*site.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.broker != nil {
		r.broker.PublishBuildStarted()
	}
	res, err := r.builder.Build(ctx)
	if err == nil {
		err = r.catalog.Replace(ctx, catalog.FromResult(res, r.source))
	}
	if r.broker != nil {
		status := sse.BuildStatus{}
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Posts = len(res.Posts)
			status.Pages = len(res.HTMLPages)
			status.DurationMS = res.Duration.Milliseconds()
		}
		r.broker.PublishBuild(status)
	}
	if err != nil {
		r.logger.Error("rebuild failed", slog.String("error", err.Error()))
		return nil, err
	}
	return res, nil
}

func (r *runner) buildStats(ctx context.Context) (*mcpserver.BuildStats, error) {
	res, err := r.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return &mcpserver.BuildStats{
		Posts:    len(res.Posts),
		Pages:    len(res.HTMLPages),
		Listed:   len(res.Listed),
		Tags:     len(res.Tags),
		Duration: res.Duration,
		Output:   r.output,
	}, nil
}

func (a *application) openCatalog() (*catalog.DB, error) {
	db, err := catalog.Open(a.config.App.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	return db, nil
}

// Serve builds the site, then serves it with live reload while watching the
// source directory for changes.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	if err := site.Check(app.sourceDir); err != nil {
		return err
	}

	db, err := app.openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(30 * time.Second)
	defer broker.Close()

	run := &runner{
		builder: app.builder(site.WithLiveReload(true)),
		source:  app.sourceDir,
		output:  app.outputDir,
		catalog: db,
		broker:  broker,
		logger:  logger,
	}
	// A broken post should not stop the server; the next save retries.
	_, _ = run.rebuild(ctx)

	apiRouter := api.NewRouter(db, broker, logger)
	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           api.NewServer(app.outputDir, apiRouter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, app.sourceDir, watch.Options{
			Exclude: []string{app.outputDir},
		}, logger, func() {
			_, _ = run.rebuild(gCtx)
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server",
			slog.String("address", cfg.App.HTTP.Address()),
			slog.String("output", app.outputDir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		// Open event streams would keep Shutdown waiting.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ServeMCP builds the site and serves the MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	if err := site.Check(app.sourceDir); err != nil {
		return err
	}

	source, err := storage.NewFS(app.sourceDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := app.openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	run := &runner{
		builder: app.builder(),
		source:  app.sourceDir,
		output:  app.outputDir,
		catalog: db,
		logger:  app.logger,
	}
	if _, err := run.rebuild(ctx); err != nil {
		app.logger.Warn("initial build failed; catalog is empty until build_site succeeds")
	}

	app.logger.Info("MCP server starting", slog.String("source", app.sourceDir))
	return mcpserver.New(source, db, run.buildStats, app.version).ServeStdio()
}

// Init scaffolds a new blog in dir. Existing files are left untouched. It
// returns the files it created.
func Init(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("init: create %s: %w", dir, err)
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	var created []string
	for _, f := range scaffoldFiles {
		if _, err := os.Stat(filepath.Join(dir, f.name)); err == nil {
			continue
		}
		if err := fs.Write(f.name, []byte(f.content)); err != nil {
			return created, fmt.Errorf("init: %w", err)
		}
		created = append(created, filepath.Join(dir, f.name))
	}
	return created, nil
}
