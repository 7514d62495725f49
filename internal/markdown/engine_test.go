package markdown

import (
	"bytes"
	"strings"
	"testing"
)

func TestConvert_HeadingIDs(t *testing.T) {
	e := New()
	html, err := e.Convert([]byte("## Getting Started\n\ntext\n"))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(html, `<h2 id="getting-started">Getting Started</h2>`) {
		t.Errorf("missing heading anchor in %q", html)
	}
	if strings.Contains(html, "¶") {
		t.Errorf("no permalink glyph expected in %q", html)
	}
}

func TestConvert_ResetBetweenCalls(t *testing.T) {
	e := New()
	src := []byte("## Intro\n\n## Intro\n")
	first, err := e.Convert(src)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	second, err := e.Convert(src)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if first != second {
		t.Errorf("conversion leaked state between calls:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(second, `id="intro"`) {
		t.Errorf("second call should restart heading ids: %q", second)
	}
}

func TestConvert_Extensions(t *testing.T) {
	e := New()
	src := strings.Join([]string{
		"| a | b |",
		"|---|---|",
		"| 1 | 2 |",
		"",
		"- [x] done",
		"- [ ] todo",
		"",
		"~~gone~~ and ==marked== and https://example.com",
		"",
		"Term",
		": Definition",
		"",
		"Note[^1]",
		"",
		"[^1]: Footnote text.",
		"",
		"<div class=\"raw\">kept</div>",
		"",
	}, "\n")
	html, err := e.Convert([]byte(src))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	for _, want := range []string{
		"<table>",
		`type="checkbox"`,
		"<del>gone</del>",
		"<mark>marked</mark>",
		`<a href="https://example.com">`,
		"<dl>",
		`class="footnotes"`,
		`<div class="raw">kept</div>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in output:\n%s", want, html)
		}
	}
}

func TestConvert_SingleEqualsIsText(t *testing.T) {
	e := New()
	html, err := e.Convert([]byte("a = b and x === y\n"))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if strings.Contains(html, "<mark>") {
		t.Errorf("unexpected mark in %q", html)
	}
}

func TestConvert_AttributeList(t *testing.T) {
	e := New()
	html, err := e.Convert([]byte("## Custom {#my-id .wide}\n"))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(html, `id="my-id"`) || !strings.Contains(html, `class="wide"`) {
		t.Errorf("attribute list not applied: %q", html)
	}
}

func TestConvert_HighlightedCode(t *testing.T) {
	e := New()
	html, err := e.Convert([]byte("```go\nfunc main() {}\n```\n"))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(html, `class="chroma"`) {
		t.Errorf("expected chroma classes in %q", html)
	}
}

func TestWriteHighlightCSS(t *testing.T) {
	var buf bytes.Buffer
	if err := New(WithCodeStyle("monokai")).WriteHighlightCSS(&buf); err != nil {
		t.Fatalf("WriteHighlightCSS: %v", err)
	}
	if !strings.Contains(buf.String(), ".chroma") {
		t.Errorf("stylesheet missing .chroma rules: %q", buf.String())
	}
}
