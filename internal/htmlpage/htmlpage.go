// Package htmlpage extracts listing metadata from standalone HTML files.
package htmlpage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/ghmd/internal/checksum"
	"github.com/starford/ghmd/internal/models"
)

var metaDescriptionRe = regexp.MustCompile(`(?i)<meta\s+name=["']description["']\s+content=["'](.*?)["']\s*/?>`)

// Parser reads HTML pages. It holds no per-file state.
type Parser struct {
	titler cases.Caser
}

// New creates a Parser.
func New() *Parser {
	return &Parser{titler: cases.Title(language.Und)}
}

// Parse reads the HTML file at path. Only I/O errors are returned; a page
// without a title or description simply lacks them.
func (p *Parser) Parse(path, sourceRoot string) (*models.HtmlPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: stat %s: %w", path, err)
	}
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: relative path %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title := extractTitle(string(data))
	if title == "" {
		title = p.titler.String(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
	}

	var description string
	if m := metaDescriptionRe.FindStringSubmatch(string(data)); m != nil {
		description = m[1]
	}

	mtime := info.ModTime()
	return &models.HtmlPage{
		Title:       title,
		Date:        &mtime,
		Description: description,
		Slug:        stem,
		SourcePath:  path,
		OutputPath:  filepath.ToSlash(rel),
		Checksum:    checksum.Sum(data),
	}, nil
}

// extractTitle returns the decoded text of the first <title> element.
func extractTitle(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var (
		inTitle bool
		title   strings.Builder
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(title.String())
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "title" && inTitle {
				return strings.TrimSpace(title.String())
			}
		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		}
	}
}
