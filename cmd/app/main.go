package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ghmd/internal"
	"github.com/starford/ghmd/internal/site"
	pkgconfig "github.com/starford/ghmd/pkg/config"
)

var version = "dev"

var (
	sourceFlag = &cli.StringFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Source directory containing markdown files",
		Value:   internal.DefaultSourceDir,
		Sources: cli.EnvVars("GHMD_SOURCE"),
	}
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output directory for generated HTML",
		Value:   internal.DefaultOutputDir,
		Sources: cli.EnvVars("GHMD_OUTPUT"),
	}
	configFlag = &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "<source>/" + site.ConfigFileName,
		Sources:     cli.EnvVars("GHMD_CONFIG_FILE"),
	}
	baseURLFlag = &cli.StringFlag{
		Name:    "base-url",
		Aliases: []string{"b"},
		Usage:   "Override base_url from config (e.g. '/' for local, '/blog' for deployment)",
	}
	portFlag = &cli.IntFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Usage:   "Dev server port (overrides app.http.port)",
		Sources: cli.EnvVars("GHMD_PORT"),
	}
)

// loadConfig reads the explicit --config file, or <source>/ghmd.config.yml
// when it exists.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	if path := cmd.String("config"); path != "" {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}

	path := filepath.Join(cmd.String("source"), site.ConfigFileName)
	if _, err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func appOptions(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithSourceDir(cmd.String("source")),
		internal.WithOutputDir(cmd.String("output")),
		internal.WithVersion(version),
	}
	if cmd.IsSet("base-url") {
		opts = append(opts, internal.WithBaseURL(cmd.String("base-url")))
	}
	return opts
}

func build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := internal.Build(ctx, appOptions(cmd, cfg)...)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	w := stdout(cmd)
	if len(res.HTMLPages) > 0 {
		fmt.Fprintf(w, "Generated %d posts from Markdown + %d HTML pages = %d total pages\n",
			len(res.Posts), len(res.HTMLPages), len(res.Posts)+len(res.HTMLPages))
	} else {
		fmt.Fprintf(w, "Generated %d posts\n", len(res.Posts))
	}
	if len(res.Tags) > 0 {
		fmt.Fprintf(w, "Created indices for %d unique tags\n", len(res.Tags))
	}
	fmt.Fprintf(w, "Output written to %s\n", cmd.String("output"))
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid port: %w", err)
		}
	}
	if err := internal.Serve(ctx, appOptions(cmd, cfg)...); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, appOptions(cmd, cfg)...); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func initBlog(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("source")
	created, err := internal.Init(dir)
	if err != nil {
		return err
	}
	w := stdout(cmd)
	for _, p := range created {
		fmt.Fprintf(w, "Created %s\n", p)
	}
	fmt.Fprintf(w, "\nBlog initialized in %s\n", dir)
	fmt.Fprintf(w, "  Run 'ghmd build -s %s' to generate your site\n", dir)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "ghmd",
		Usage:   "Static blog generator for markdown repositories",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the static blog from markdown files",
				Flags:  []cli.Flag{sourceFlag, outputFlag, configFlag, baseURLFlag},
				Action: build,
			},
			{
				Name:   "serve",
				Usage:  "Build, watch the source directory and serve the site with live reload",
				Flags:  []cli.Flag{sourceFlag, outputFlag, configFlag, baseURLFlag, portFlag},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve blog tools to MCP clients over stdio",
				Flags:  []cli.Flag{sourceFlag, outputFlag, configFlag},
				Action: mcp,
			},
			{
				Name:  "init",
				Usage: "Initialize a new blog with example files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Directory to initialize",
						Value:   internal.DefaultSourceDir,
					},
				},
				Action: initBlog,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
