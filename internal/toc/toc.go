// Package toc renders a nested table of contents from extracted headings.
package toc

import (
	"strings"

	"github.com/starford/ghmd/internal/models"
)

// Default heading bounds used by posts.
const (
	DefaultMinLevel = 2
	DefaultMaxLevel = 4
)

// Build renders headings within [minLevel, maxLevel] as nested lists inside
// a nav element. It returns "" when no heading is in range.
//
// Heading text is emitted verbatim; it is already HTML-escaped by the
// markdown renderer it was extracted from.
func Build(headings []models.Heading, minLevel, maxLevel int) string {
	filtered := filter(headings, minLevel, maxLevel)
	if len(filtered) == 0 {
		return ""
	}

	lines := []string{
		`<nav class="toc" aria-label="Table of contents">`,
		`<ul class="toc-list">`,
	}

	current := minLevel
	for _, h := range filtered {
		for h.Level > current {
			lines = append(lines, "<ul>")
			current++
		}
		// filtered levels are >= minLevel, so this never closes the root list.
		for h.Level < current {
			lines = append(lines, "</ul></li>")
			current--
		}
		lines = append(lines, `<li><a href="#`+h.ID+`">`+h.Text+`</a>`)
	}

	for current >= minLevel {
		lines = append(lines, "</li></ul>")
		current--
	}
	lines = append(lines, "</nav>")

	return strings.Join(lines, "\n")
}

// Count returns the number of headings within [minLevel, maxLevel].
func Count(headings []models.Heading, minLevel, maxLevel int) int {
	return len(filter(headings, minLevel, maxLevel))
}

func filter(headings []models.Heading, minLevel, maxLevel int) []models.Heading {
	var out []models.Heading
	for _, h := range headings {
		if h.Level >= minLevel && h.Level <= maxLevel {
			out = append(out, h)
		}
	}
	return out
}
