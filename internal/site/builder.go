// Package site assembles a static blog from a source tree: post pages, the
// paginated index, per-tag indices and copied assets.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/ghmd/internal/htmlpage"
	"github.com/starford/ghmd/internal/markdown"
	"github.com/starford/ghmd/internal/models"
	"github.com/starford/ghmd/internal/parser"
	"github.com/starford/ghmd/internal/storage"
	"github.com/starford/ghmd/internal/tags"
	"github.com/starford/ghmd/internal/toc"
)

// ConfigFileName is the per-blog config file; it is never published.
const ConfigFileName = "ghmd.config.yml"

// Directory names with special meaning in the source tree.
const (
	tagsDir   = "tags"
	assetsDir = "assets"
)

// Result summarizes one build.
type Result struct {
	// Posts holds every non-draft markdown post, listed or not.
	Posts     []*models.Post
	HTMLPages []*models.HtmlPage
	// Listed is the sorted sequence shown on the root index.
	Listed   []models.Listable
	Tags     []string
	Duration time.Duration
}

// Builder runs builds for one source/output pair.
type Builder struct {
	settings   Settings
	sourceDir  string
	outputDir  string
	engine     *markdown.Engine
	posts      *parser.Parser
	pages      *htmlpage.Parser
	liveReload bool
	logger     *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLiveReload injects the dev server reload script into every page.
func WithLiveReload(enabled bool) Option {
	return func(b *Builder) {
		b.liveReload = enabled
	}
}

// WithEngine replaces the default markdown engine.
func WithEngine(e *markdown.Engine) Option {
	return func(b *Builder) {
		if e != nil {
			b.engine = e
		}
	}
}

// NewBuilder creates a Builder. settings should already be normalized.
func NewBuilder(settings Settings, sourceDir, outputDir string, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Builder{
		settings:  settings,
		sourceDir: sourceDir,
		outputDir: outputDir,
		engine:    markdown.New(),
		pages:     htmlpage.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.posts = parser.New(b.engine, logger)
	return b
}

// Build regenerates the whole output directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	src, out, err := b.prepare()
	if err != nil {
		return nil, err
	}

	r, err := newRenderer(&b.settings, filepath.Join(src.Root(), UserTemplateDir))
	if err != nil {
		return nil, err
	}

	skip := b.skipDirs(src)

	posts, err := b.parsePosts(src, skip)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := b.parsePages(src, skip)
	if err != nil {
		return nil, err
	}

	listed := make([]models.Listable, 0, len(posts)+len(pages))
	for _, p := range posts {
		if !p.ExcludeFromIndex {
			listed = append(listed, p)
		}
	}
	for _, p := range pages {
		listed = append(listed, p)
	}
	SortListed(listed, b.settings.SortByUpdate)

	for _, p := range posts {
		if err := b.renderPost(r, out, p); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := b.renderListing(r, out, listed, "", "", ""); err != nil {
		return nil, err
	}

	var tagNames []string
	if b.settings.TagsAsLink {
		tagNames = DistinctTags(listed)
		for _, tag := range tagNames {
			if err := b.renderTag(r, src, out, listed, tag); err != nil {
				return nil, err
			}
		}
	}

	if err := b.copyAssets(out); err != nil {
		return nil, err
	}
	if err := b.copyPassthrough(src, out, skip); err != nil {
		return nil, err
	}

	res := &Result{
		Posts:     posts,
		HTMLPages: pages,
		Listed:    listed,
		Tags:      tagNames,
		Duration:  time.Since(start),
	}
	b.logger.Info("site built",
		slog.Int("md_posts", len(posts)),
		slog.Int("html_pages", len(pages)),
		slog.Int("listed", len(listed)),
		slog.Int("tags", len(tagNames)),
		slog.String("output", out.Root()),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// prepare validates the directories and clears the output.
func (b *Builder) prepare() (*storage.FS, *storage.FS, error) {
	src, err := storage.NewFS(b.sourceDir)
	if err != nil {
		return nil, nil, fmt.Errorf("site: source: %w", err)
	}
	outAbs, err := filepath.Abs(b.outputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("site: output: %w", err)
	}
	if outAbs == src.Root() {
		return nil, nil, fmt.Errorf("site: output directory %s is the source directory", outAbs)
	}
	if strings.HasPrefix(src.Root(), outAbs+string(os.PathSeparator)) {
		return nil, nil, fmt.Errorf("site: output directory %s contains the source directory", outAbs)
	}
	if err := storage.Reset(outAbs); err != nil {
		return nil, nil, fmt.Errorf("site: reset output: %w", err)
	}
	out, err := storage.NewFS(outAbs)
	if err != nil {
		return nil, nil, fmt.Errorf("site: output: %w", err)
	}
	return src, out, nil
}

// skipDirs lists source directories never scanned for content: the template
// overrides and, when nested inside the source, the output itself.
func (b *Builder) skipDirs(src *storage.FS) []string {
	dirs := []string{UserTemplateDir}
	outAbs, err := filepath.Abs(b.outputDir)
	if err != nil {
		return dirs
	}
	if rel, err := filepath.Rel(src.Root(), outAbs); err == nil && !strings.HasPrefix(rel, "..") {
		dirs = append(dirs, filepath.ToSlash(rel))
	}
	return dirs
}

func (b *Builder) parsePosts(src *storage.FS, skip []string) ([]*models.Post, error) {
	files, err := src.List("", storage.ListOptions{Exts: []string{".md"}, SkipDirs: skip})
	if err != nil {
		return nil, fmt.Errorf("site: discover markdown: %w", err)
	}

	var posts []*models.Post
	for _, f := range files {
		if IsConfigFile(f.Path) || path.Base(path.Dir(f.Path)) == tagsDir {
			continue
		}
		abs, err := src.Abs(f.Path)
		if err != nil {
			return nil, fmt.Errorf("site: %w", err)
		}
		post, err := b.posts.Parse(abs, src.Root())
		if err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", f.Path, err)
		}
		if post.Draft {
			b.logger.Debug("skipping draft", slog.String("path", f.Path))
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (b *Builder) parsePages(src *storage.FS, skip []string) ([]*models.HtmlPage, error) {
	files, err := src.List("", storage.ListOptions{Exts: []string{".html"}, SkipDirs: skip})
	if err != nil {
		return nil, fmt.Errorf("site: discover html: %w", err)
	}

	pages := make([]*models.HtmlPage, 0, len(files))
	for _, f := range files {
		abs, err := src.Abs(f.Path)
		if err != nil {
			return nil, fmt.Errorf("site: %w", err)
		}
		page, err := b.pages.Parse(abs, src.Root())
		if err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", f.Path, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// renderPost renders post with its template. The parser has already
// replaced unknown template names with post, and both templates always
// exist, so no lookup fallback is needed here.
func (b *Builder) renderPost(r *renderer, out *storage.FS, post *models.Post) error {
	showTOC := parser.ShouldShowTOC(post, b.settings.ShowTOC, b.settings.TOCMinHeadings)
	var tocHTML string
	if showTOC {
		tocHTML = toc.Build(post.Headings, toc.DefaultMinLevel, toc.DefaultMaxLevel)
	}

	html, err := r.render(post.Template+".html", &pageData{
		Site:       &b.settings,
		Depth:      strings.Count(post.OutputPath, "/"),
		LiveReload: b.liveReload,
		Post:       post,
		ShowTOC:    showTOC,
		TOC:        template.HTML(tocHTML),
	})
	if err != nil {
		return err
	}
	if err := out.Write(post.OutputPath, html); err != nil {
		return fmt.Errorf("site: write %s: %w", post.OutputPath, err)
	}
	return nil
}

// renderListing writes every page of a listing into dir ("" for the root).
func (b *Builder) renderListing(r *renderer, out *storage.FS, items []models.Listable, dir, tag string, description template.HTML) error {
	depth := 0
	if dir != "" {
		depth = strings.Count(dir, "/") + 1
	}
	for _, page := range Paginate(items, b.settings.MaxPostsPerIndexPage) {
		data := &pageData{
			Site:        &b.settings,
			Depth:       depth,
			LiveReload:  b.liveReload,
			Items:       page.Items,
			CurrentPage: page.Number,
			TotalPages:  page.Total,
			Tag:         tag,
		}
		if page.Number == 1 {
			data.TagDescription = description
		}
		html, err := r.render(templateIndex, data)
		if err != nil {
			return err
		}
		name := path.Join(dir, PageFile(page.Number))
		if err := out.Write(name, html); err != nil {
			return fmt.Errorf("site: write %s: %w", name, err)
		}
	}
	return nil
}

func (b *Builder) renderTag(r *renderer, src, out *storage.FS, listed []models.Listable, tag string) error {
	items := FilterByTag(listed, tag)
	if len(items) == 0 {
		return nil
	}
	slug := tags.Slugify(tag)
	return b.renderListing(r, out, items, path.Join(tagsDir, slug), tag, b.tagDescription(src, tag, slug))
}

// tagDescription renders tags/<slug>.md when present. Failures only warn.
func (b *Builder) tagDescription(src *storage.FS, tag, slug string) template.HTML {
	abs, err := src.Abs(path.Join(tagsDir, slug+".md"))
	if err != nil {
		return ""
	}
	if _, err := os.Stat(abs); err != nil {
		return ""
	}
	html, err := b.posts.RenderFragment(abs)
	if err != nil {
		b.logger.Warn("could not read tag description",
			slog.String("tag", tag),
			slog.String("error", err.Error()))
		return ""
	}
	return template.HTML(html)
}

// copyAssets writes the bundled stylesheets and scripts plus the generated
// highlight stylesheet under assets/.
func (b *Builder) copyAssets(out *storage.FS) error {
	assets, err := fs.Sub(bundled, "theme/assets")
	if err != nil {
		return fmt.Errorf("site: bundled assets: %w", err)
	}
	err = fs.WalkDir(assets, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(assets, p)
		if err != nil {
			return err
		}
		return out.Write(path.Join(assetsDir, p), data)
	})
	if err != nil {
		return fmt.Errorf("site: copy assets: %w", err)
	}

	var css bytes.Buffer
	if err := b.engine.WriteHighlightCSS(&css); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := out.Write(path.Join(assetsDir, "css", "highlight.css"), css.Bytes()); err != nil {
		return fmt.Errorf("site: write highlight css: %w", err)
	}
	return nil
}

// copyPassthrough copies every source file that is not markdown, config or a
// template override, keeping relative paths. Standalone HTML pages are
// published this way.
func (b *Builder) copyPassthrough(src, out *storage.FS, skip []string) error {
	files, err := src.List("", storage.ListOptions{SkipDirs: skip})
	if err != nil {
		return fmt.Errorf("site: discover files: %w", err)
	}
	for _, f := range files {
		if strings.EqualFold(path.Ext(f.Path), ".md") || IsConfigFile(f.Path) {
			continue
		}
		data, err := src.Read(f.Path)
		if err != nil {
			return fmt.Errorf("site: %w", err)
		}
		if err := out.Write(f.Path, data); err != nil {
			return fmt.Errorf("site: copy %s: %w", f.Path, err)
		}
	}
	return nil
}

// IsConfigFile reports whether rel names the blog config file.
func IsConfigFile(rel string) bool {
	return path.Base(filepath.ToSlash(rel)) == ConfigFileName
}

// ErrNoSource is returned by Check when the source directory is missing.
var ErrNoSource = errors.New("source directory not found")

// Check verifies that sourceDir exists and is a directory.
func Check(sourceDir string) error {
	info, err := os.Stat(sourceDir)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("site: %s: %w", sourceDir, ErrNoSource)
	}
	if err != nil {
		return fmt.Errorf("site: stat %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("site: %s is not a directory", sourceDir)
	}
	return nil
}
