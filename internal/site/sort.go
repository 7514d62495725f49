package site

import (
	"slices"

	"github.com/starford/ghmd/internal/models"
)

// SortListed orders items newest first by SortDate(byUpdate). Undated items
// go last; ties keep their discovery order.
func SortListed(items []models.Listable, byUpdate bool) {
	slices.SortStableFunc(items, func(a, b models.Listable) int {
		da, db := a.SortDate(byUpdate), b.SortDate(byUpdate)
		switch {
		case da == nil && db == nil:
			return 0
		case da == nil:
			return 1
		case db == nil:
			return -1
		}
		return db.Compare(*da)
	})
}

// DistinctTags returns the sorted set of tags used by items.
func DistinctTags(items []models.Listable) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		for _, tag := range item.ListTags() {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}

// FilterByTag keeps the items listing tag, preserving order.
func FilterByTag(items []models.Listable, tag string) []models.Listable {
	var out []models.Listable
	for _, item := range items {
		if models.HasTag(item, tag) {
			out = append(out, item)
		}
	}
	return out
}
