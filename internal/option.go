package internal

import "log/slog"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	sourceDir string
	outputDir string
	baseURL   *string
	logger    *slog.Logger
	version   string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSourceDir sets the directory holding the markdown sources.
func WithSourceDir(dir string) Option {
	return func(a *application) {
		a.sourceDir = dir
	}
}

// WithOutputDir sets the directory the site is written to.
func WithOutputDir(dir string) Option {
	return func(a *application) {
		a.outputDir = dir
	}
}

// WithBaseURL overrides base_url from the config file.
func WithBaseURL(baseURL string) Option {
	return func(a *application) {
		a.baseURL = &baseURL
	}
}

// WithLogger replaces the logger built from the app config section.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
