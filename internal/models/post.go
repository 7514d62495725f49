// Package models defines the content items produced by a ghmd build.
package models

import (
	"html/template"
	"path/filepath"
	"strings"
	"time"
)

// Template names a post may select in its frontmatter.
const (
	TemplatePost = "post"
	TemplatePage = "page"
)

// syntheticRoot is the leading output segment that never appears in URLs.
const syntheticRoot = "output"

// Toggle is a tri-state frontmatter switch. The zero value means the key was
// not set, which is distinct from an explicit false.
type Toggle int8

const (
	ToggleUnset Toggle = iota
	ToggleOn
	ToggleOff
)

// IsSet reports whether the value was given explicitly.
func (t Toggle) IsSet() bool { return t != ToggleUnset }

// Enabled reports whether the value is explicitly on.
func (t Toggle) Enabled() bool { return t == ToggleOn }

// ToggleOf converts a bool into an explicit Toggle.
func ToggleOf(v bool) Toggle {
	if v {
		return ToggleOn
	}
	return ToggleOff
}

// Heading is a rendered h2-h4 element that carries an id.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Post represents a parsed markdown file.
type Post struct {
	Title            string     `json:"title"`
	Date             *time.Time `json:"date,omitempty"`
	Update           *time.Time `json:"update,omitempty"`
	Description      string     `json:"description,omitempty"`
	Author           string     `json:"author,omitempty"`
	Tags             []string   `json:"tags"`
	Draft            bool       `json:"draft"`
	TOC              Toggle     `json:"-"`
	ExcludeFromIndex bool       `json:"exclude_from_index"`
	Template         string     `json:"template"`

	ContentHTML template.HTML `json:"-"`
	Body        string        `json:"-"`
	Slug        string        `json:"slug"`
	SourcePath  string        `json:"source_path"`
	OutputPath  string        `json:"output_path"`
	ReadingTime int           `json:"reading_time"`
	Headings    []Heading     `json:"headings,omitempty"`
	Checksum    string        `json:"checksum"`
}

// ListTitle implements Listable.
func (p *Post) ListTitle() string { return p.Title }

// Link implements Listable.
func (p *Post) Link() string { return URLFromOutputPath(p.OutputPath) }

// ListDate implements Listable.
func (p *Post) ListDate() *time.Time { return p.Date }

// SortDate returns the update date when byUpdate is set and present,
// otherwise the primary date.
func (p *Post) SortDate(byUpdate bool) *time.Time {
	if byUpdate && p.Update != nil {
		return p.Update
	}
	return p.Date
}

// ListTags implements Listable.
func (p *Post) ListTags() []string {
	if p.Tags == nil {
		return []string{}
	}
	return p.Tags
}

// Summary implements Listable.
func (p *Post) Summary() string { return p.Description }

// IsHTML implements Listable.
func (p *Post) IsHTML() bool { return false }

// OutputPathFor swaps the .md extension of a source-relative path for .html.
func OutputPathFor(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
}

// URLFromOutputPath joins the output path segments with "/" under a leading
// slash, dropping the synthetic output root when present.
func URLFromOutputPath(out string) string {
	parts := strings.Split(filepath.ToSlash(out), "/")
	if len(parts) > 0 && parts[0] == syntheticRoot {
		parts = parts[1:]
	}
	return "/" + strings.Join(parts, "/")
}
