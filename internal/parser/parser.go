// Package parser turns markdown files with YAML frontmatter into posts.
package parser

import (
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/ghmd/internal/checksum"
	"github.com/starford/ghmd/internal/markdown"
	"github.com/starford/ghmd/internal/models"
)

// WordsPerMinute is the reading speed used for ReadingTime.
const WordsPerMinute = 200

// Parser converts markdown sources into posts. It reuses one markdown engine
// for every file.
type Parser struct {
	engine *markdown.Engine
	logger *slog.Logger
	titler cases.Caser
}

// New creates a Parser. A nil logger discards warnings.
func New(engine *markdown.Engine, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{
		engine: engine,
		logger: logger,
		titler: cases.Title(language.Und),
	}
}

// Parse reads the markdown file at path. sourceRoot is used to derive the
// slug and output path. Malformed frontmatter is reported as *ParseError.
func (p *Parser) Parse(path, sourceRoot string) (*models.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", path, err)
	}
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil {
		return nil, fmt.Errorf("parser: relative path %s: %w", path, err)
	}

	fm, body, err := splitFrontmatter(path, data)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title := strings.TrimSpace(stringValue(fm["title"]))
	if title == "" {
		title = p.titler.String(strings.ReplaceAll(stem, "-", " "))
	}

	draft, _ := boolValue(fm["draft"])
	exclude, _ := boolValue(fm["exclude_from_index"])

	html, err := p.engine.Convert(body)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", path, err)
	}

	return &models.Post{
		Title:            title,
		Date:             dateValue(fm["date"]),
		Update:           dateValue(fm["update"]),
		Description:      stringValue(fm["description"]),
		Author:           strings.TrimSpace(stringValue(fm["author"])),
		Tags:             tagsValue(fm["tags"]),
		Draft:            draft,
		TOC:              toggleValue(fm["toc"]),
		ExcludeFromIndex: exclude,
		Template:         p.template(path, fm["template"]),
		ContentHTML:      template.HTML(html),
		Body:             string(body),
		Slug:             stem,
		SourcePath:       path,
		OutputPath:       models.OutputPathFor(rel),
		ReadingTime:      ReadingTime(string(body)),
		Headings:         extractHeadings(html),
		Checksum:         checksum.Sum(data),
	}, nil
}

// RenderFragment converts a markdown file to HTML with its frontmatter
// removed. It is used for tag descriptions.
func (p *Parser) RenderFragment(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("parser: read %s: %w", path, err)
	}
	_, body, err := splitFrontmatter(path, data)
	if err != nil {
		return "", err
	}
	html, err := p.engine.Convert(body)
	if err != nil {
		return "", fmt.Errorf("parser: %s: %w", path, err)
	}
	return html, nil
}

func (p *Parser) template(path string, v any) string {
	name := strings.ToLower(strings.TrimSpace(stringValue(v)))
	switch name {
	case "":
		return models.TemplatePost
	case models.TemplatePost, models.TemplatePage:
		return name
	}
	p.logger.Warn("invalid template, defaulting to post",
		slog.String("path", path),
		slog.String("template", name))
	return models.TemplatePost
}

// ReadingTime estimates minutes to read body, rounding half to even and
// never returning less than one.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	minutes := int(math.RoundToEven(float64(words) / WordsPerMinute))
	return max(1, minutes)
}

// ShouldShowTOC decides whether a post renders its table of contents. An
// explicit frontmatter value overrides the global switch, but the heading
// threshold always applies.
func ShouldShowTOC(post *models.Post, global bool, minHeadings int) bool {
	switch post.TOC {
	case models.ToggleOff:
		return false
	case models.ToggleUnset:
		if !global {
			return false
		}
	}
	return len(post.Headings) >= minHeadings
}
