package parser

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/starford/ghmd/internal/models"
)

// extractHeadings scans rendered HTML for h2-h4 elements carrying an id.
// Nested markup is dropped but entity escaping is preserved, so the text can
// be written into the TOC as is.
func extractHeadings(rendered string) []models.Heading {
	var (
		out     []models.Heading
		current *models.Heading
		tag     string
		text    strings.Builder
	)

	z := html.NewTokenizer(strings.NewReader(rendered))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out

		case html.StartTagToken:
			if current != nil {
				continue
			}
			name, hasAttr := z.TagName()
			level := headingLevel(string(name))
			if level == 0 || !hasAttr {
				continue
			}
			id := attr(z, "id")
			if id == "" {
				continue
			}
			current = &models.Heading{Level: level, ID: id}
			tag = string(name)
			text.Reset()

		case html.TextToken:
			if current != nil {
				text.Write(z.Raw())
			}

		case html.EndTagToken:
			if current == nil {
				continue
			}
			name, _ := z.TagName()
			if string(name) != tag {
				continue
			}
			current.Text = cleanHeadingText(text.String())
			out = append(out, *current)
			current = nil
		}
	}
}

func headingLevel(name string) int {
	switch name {
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	}
	return 0
}

// attr returns the value of key on the current start tag. It consumes the
// tokenizer's attribute iterator.
func attr(z *html.Tokenizer, key string) string {
	for {
		k, v, more := z.TagAttr()
		if string(k) == key {
			return string(v)
		}
		if !more {
			return ""
		}
	}
}

func cleanHeadingText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "¶", "")
	s = strings.ReplaceAll(s, "&para;", "")
	return strings.TrimSpace(s)
}
