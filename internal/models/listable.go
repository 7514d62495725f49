package models

import "time"

// Listable is the shape index and tag pages need from a content item.
type Listable interface {
	ListTitle() string
	Link() string
	// ListDate returns nil for undated items.
	ListDate() *time.Time
	SortDate(byUpdate bool) *time.Time
	ListTags() []string
	Summary() string
	IsHTML() bool
}

var (
	_ Listable = (*Post)(nil)
	_ Listable = (*HtmlPage)(nil)
)

// HasTag reports whether item lists tag.
func HasTag(item Listable, tag string) bool {
	for _, t := range item.ListTags() {
		if t == tag {
			return true
		}
	}
	return false
}
