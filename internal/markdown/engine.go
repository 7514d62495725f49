// Package markdown wraps the goldmark engine with the extension set used for
// posts and tag descriptions.
package markdown

import (
	"bytes"
	"fmt"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultCodeStyle is the chroma style used for the generated stylesheet.
const DefaultCodeStyle = "github"

// Engine converts markdown to HTML. A single Engine is reused for every file
// in a build; each Convert call runs with its own parser context so heading
// ids and footnotes never leak between files.
type Engine struct {
	md        goldmark.Markdown
	codeStyle string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCodeStyle selects the chroma style written by WriteHighlightCSS.
func WithCodeStyle(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.codeStyle = name
		}
	}
}

// New builds an Engine with heading anchors, tables, fenced and highlighted
// code, definition lists, footnotes, raw HTML, autolinks, task lists,
// strikethrough, mark and attribute lists.
func New(opts ...Option) *Engine {
	e := &Engine{codeStyle: DefaultCodeStyle}
	for _, opt := range opts {
		opt(e)
	}

	e.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			Mark,
			highlighting.NewHighlighting(
				highlighting.WithStyle(e.codeStyle),
				highlighting.WithGuessLanguage(false),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.TabWidth(4),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return e
}

// Convert renders src to HTML.
func (e *Engine) Convert(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert(src, &buf, parser.WithContext(parser.NewContext())); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), nil
}

// WriteHighlightCSS writes the stylesheet matching the classes emitted for
// highlighted code blocks.
func (e *Engine) WriteHighlightCSS(w io.Writer) error {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(w, styles.Get(e.codeStyle)); err != nil {
		return fmt.Errorf("markdown: write highlight css: %w", err)
	}
	return nil
}
