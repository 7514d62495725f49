package site

import (
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Font choices understood by the bundled stylesheet.
var (
	BodyFonts = []string{"system", "inter", "manrope", "space-grotesk", "outfit", "geist"}
	CodeFonts = []string{"system", "jetbrains-mono", "fira-code", "geist-mono"}
)

// Defaults for appearance settings.
const (
	DefaultFont       = "system"
	DefaultThemeLight = "default_light"
	DefaultThemeDark  = "default_dark"
)

// Settings are the blog-level keys of ghmd.config.yml.
type Settings struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Author      string `yaml:"author" json:"author"`

	ThemeLight string `yaml:"theme_light" json:"theme_light"`
	ThemeDark  string `yaml:"theme_dark" json:"theme_dark"`
	// Font is the legacy name of FontBody.
	Font     string `yaml:"font" json:"-"`
	FontBody string `yaml:"font_body" json:"font_body"`
	FontCode string `yaml:"font_code" json:"font_code"`

	ShowTOC              bool `yaml:"show_toc" json:"show_toc"`
	TOCMinHeadings       int  `yaml:"toc_min_headings" json:"toc_min_headings"`
	ShowDate             bool `yaml:"show_date" json:"show_date"`
	ShowReadingTime      bool `yaml:"show_reading_time" json:"show_reading_time"`
	SortByUpdate         bool `yaml:"sort_by_update" json:"sort_by_update"`
	MaxPostsPerIndexPage int  `yaml:"max_posts_per_index_page" json:"max_posts_per_index_page"`
	TagsAsLink           bool `yaml:"tags_as_link" json:"tags_as_link"`

	BaseURL string `yaml:"base_url" json:"base_url"`
}

// DefaultSettings returns the settings used when the config file omits a key.
// FontBody and FontCode stay empty so Normalize can tell whether the legacy
// font key applies.
func DefaultSettings() Settings {
	return Settings{
		Title:           "My Blog",
		ThemeLight:      DefaultThemeLight,
		ThemeDark:       DefaultThemeDark,
		ShowTOC:         true,
		TOCMinHeadings:  3,
		ShowDate:        true,
		ShowReadingTime: true,
		TagsAsLink:      true,
		BaseURL:         "/",
	}
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.TOCMinHeadings, validation.Min(0)),
		validation.Field(&s.MaxPostsPerIndexPage, validation.Min(0)),
	)
}

// Normalize migrates the legacy font key and replaces unknown fonts and
// themes with defaults, logging a warning for each replacement.
func (s *Settings) Normalize(logger *slog.Logger) {
	if s.FontBody == "" {
		s.FontBody = s.Font
	}
	s.FontBody = pick(logger, "font_body", s.FontBody, DefaultFont, BodyFonts)
	s.FontCode = pick(logger, "font_code", s.FontCode, DefaultFont, CodeFonts)

	themes := Themes()
	s.ThemeLight = pick(logger, "theme_light", s.ThemeLight, DefaultThemeLight, themes)
	s.ThemeDark = pick(logger, "theme_dark", s.ThemeDark, DefaultThemeDark, themes)

	if s.BaseURL == "" {
		s.BaseURL = "/"
	}
}

func pick(logger *slog.Logger, key, value, fallback string, allowed []string) string {
	if value == "" {
		return fallback
	}
	if slices.Contains(allowed, value) {
		return value
	}
	logger.Warn("unknown config value, falling back",
		slog.String("key", key),
		slog.String("value", value),
		slog.String("fallback", fallback),
		slog.String("available", strings.Join(allowed, ", ")))
	return fallback
}

// AssetURL resolves a root-relative path for a page depth levels below the
// output root. With base_url "/" the result is relative, so the output can be
// opened straight from disk.
func (s *Settings) AssetURL(p string, depth int) string {
	base := strings.TrimRight(s.BaseURL, "/")
	p = strings.TrimLeft(p, "/")
	if base == "" {
		return strings.Repeat("../", max(depth, 0)) + p
	}
	return base + "/" + p
}

// Themes lists the bundled theme names.
func Themes() []string {
	entries, err := fs.ReadDir(bundled, "theme/assets/css/themes")
	if err != nil {
		return []string{DefaultThemeLight, DefaultThemeDark}
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".css" {
			out = append(out, strings.TrimSuffix(e.Name(), ".css"))
		}
	}
	return out
}
