// Package tags maps free-text tag names to URL-safe slugs.
package tags

import "strings"

// Fallback is returned when nothing of the tag survives normalization.
const Fallback = "tag"

// specials covers symbol-heavy tags that would otherwise collapse.
var specials = map[string]string{
	"c++":  "c-plus-plus",
	"c#":   "c-sharp",
	".net": "dotnet",
	"f#":   "f-sharp",
}

// Slugify converts a tag name into a lowercase, hyphen-separated slug.
// Slugify(Slugify(s)) == Slugify(s) for every s.
func Slugify(tag string) string {
	lower := strings.ToLower(tag)
	if s, ok := specials[lower]; ok {
		return s
	}

	var b strings.Builder
	b.Grow(len(lower))
	lastHyphen := false
	for _, r := range lower {
		if r == ' ' {
			r = '-'
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-':
			if !lastHyphen {
				b.WriteRune(r)
			}
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return Fallback
	}
	return slug
}
