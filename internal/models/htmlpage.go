package models

import "time"

// HtmlPage represents a standalone HTML file listed next to posts.
type HtmlPage struct {
	Title       string     `json:"title"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
	Slug        string     `json:"slug"`
	SourcePath  string     `json:"source_path"`
	OutputPath  string     `json:"output_path"`
	Checksum    string     `json:"checksum"`
}

func (h *HtmlPage) ListTitle() string { return h.Title }

func (h *HtmlPage) Link() string { return URLFromOutputPath(h.OutputPath) }

func (h *HtmlPage) ListDate() *time.Time { return h.Date }

// SortDate ignores byUpdate; a page only has its modification time.
func (h *HtmlPage) SortDate(bool) *time.Time { return h.Date }

// ListTags always returns an empty slice.
func (h *HtmlPage) ListTags() []string { return []string{} }

func (h *HtmlPage) Summary() string { return h.Description }

func (h *HtmlPage) IsHTML() bool { return true }
