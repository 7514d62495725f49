package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/ghmd/internal/models"
)

// yamlFormat decodes "---" delimited blocks with yaml.v3 so that the same
// decoder handles both config and frontmatter.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// ParseError reports a frontmatter block that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: %s: invalid frontmatter: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// splitFrontmatter separates a leading YAML block from the markdown body.
// Content without a block yields an empty map and the whole input as body.
func splitFrontmatter(path string, data []byte) (map[string]any, []byte, error) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, yamlFormat)
	if err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, body, nil
}

// Layouts accepted for string dates. Only the calendar date is kept.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// dateValue converts a frontmatter scalar to a calendar date at local
// midnight. Values that are not dates return nil.
func dateValue(v any) *time.Time {
	switch d := v.(type) {
	// Decoding into map[string]any leaves unquoted timestamps as strings, so
	// the string branch is the usual path.
	case time.Time:
		return midnight(d)
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return midnight(t)
			}
		}
		if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

func midnight(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	return &d
}

// stringValue stringifies scalars; missing or null keys yield "".
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// boolValue accepts YAML booleans and strconv-style strings. yaml.v3 leaves
// YAML 1.1 words such as yes/no/on/off as strings, so those are matched
// here too.
func boolValue(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		switch s {
		case "yes", "y", "on":
			return true, true
		case "no", "n", "off":
			return false, true
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

func toggleValue(v any) models.Toggle {
	b, ok := boolValue(v)
	if !ok {
		return models.ToggleUnset
	}
	return models.ToggleOf(b)
}

// tagsValue accepts a YAML sequence or a single comma separated string.
func tagsValue(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			raw = append(raw, stringValue(item))
		}
	default:
		raw = []string{stringValue(t)}
	}

	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
