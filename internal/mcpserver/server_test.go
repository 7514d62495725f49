package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ghmd/internal/testutil"
)

var fixture = map[string]string{
	"intro.md":  "---\ntitle: Intro to Go\ndate: 2024-03-01\ntags: [go]\n---\nGoroutines and channels.\n",
	"rust.md":   "---\ntitle: Rust Notes\ndate: 2024-01-01\ntags: [rust]\n---\nOwnership.\n",
	"draft.md":  "---\ntitle: Draft\ndraft: true\n---\nNot yet.\n",
	"style.css": "body{}",
}

func testServer(t *testing.T, build BuildFunc) (*Server, *testutil.Site) {
	t.Helper()
	s := testutil.BuildSite(t, fixture)
	return New(s.Source, s.Catalog, build, "test"), s
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_posts":               srv.listPosts,
		"search_posts":             srv.searchPosts,
		"read_post":                srv.readPost,
		"list_tags":                srv.listTags,
		"get_frontmatter_contract": srv.getContract,
		"add_image":                srv.addImage,
		"build_site":               srv.buildSite,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListPosts(t *testing.T) {
	srv, _ := testServer(t, nil)

	r := callTool(t, srv, "list_posts", map[string]any{})
	var resp struct {
		Posts []struct {
			Path  string `json:"path"`
			Title string `json:"title"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if resp.Total != 2 || resp.Posts[0].Title != "Intro to Go" || resp.Posts[1].Title != "Rust Notes" {
		t.Errorf("list = %+v", resp)
	}

	r = callTool(t, srv, "list_posts", map[string]any{"tag": "rust"})
	if !strings.Contains(resultText(r), "rust.md") || strings.Contains(resultText(r), "intro.md") {
		t.Errorf("tag filter = %s", resultText(r))
	}
}

func TestSearchPosts(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "search_posts", map[string]any{"query": "ownership"})
	if r.IsError || !strings.Contains(resultText(r), "rust.md") {
		t.Errorf("search = %s", resultText(r))
	}

	r = callTool(t, srv, "search_posts", map[string]any{})
	if !r.IsError {
		t.Error("missing query should be an error")
	}
}

func TestReadPost(t *testing.T) {
	srv, _ := testServer(t, nil)

	r := callTool(t, srv, "read_post", map[string]any{"path": "draft.md"})
	if r.IsError || !strings.Contains(resultText(r), "draft: true") {
		t.Errorf("drafts should be readable as raw source: %s", resultText(r))
	}

	for _, p := range []string{"nope.md", "style.css", "../etc/passwd.md"} {
		if r := callTool(t, srv, "read_post", map[string]any{"path": p}); !r.IsError {
			t.Errorf("read_post(%q) should fail", p)
		}
	}
}

func TestListTags(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "list_tags", nil)
	var tags []struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &tags); err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].Tag != "go" || tags[1].Tag != "rust" {
		t.Errorf("tags = %+v", tags)
	}
}

func TestContract(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "get_frontmatter_contract", nil)
	if !strings.Contains(resultText(r), "exclude_from_index") {
		t.Error("contract should document exclude_from_index")
	}

	contents, err := srv.readContractResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != ContractURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}

func TestBuildSite(t *testing.T) {
	srv, _ := testServer(t, func(context.Context) (*BuildStats, error) {
		return &BuildStats{Posts: 2, Listed: 2, Tags: 2, Output: "output"}, nil
	})
	r := callTool(t, srv, "build_site", nil)
	if r.IsError || !strings.Contains(resultText(r), `"posts": 2`) {
		t.Errorf("build_site = %s", resultText(r))
	}

	failing, _ := testServer(t, func(context.Context) (*BuildStats, error) {
		return nil, errors.New("parser: a.md: invalid frontmatter")
	})
	r = callTool(t, failing, "build_site", nil)
	if !r.IsError || !strings.Contains(resultText(r), "invalid frontmatter") {
		t.Errorf("failed build = %s", resultText(r))
	}
}

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestAddImage(t *testing.T) {
	srv, s := testServer(t, nil)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	r := callTool(t, srv, "add_image", map[string]any{"data": uri, "filename": "my diagram.png"})
	if r.IsError {
		t.Fatalf("add_image: %s", resultText(r))
	}
	var res imageResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Path != "images/my_diagram.png" || res.Markdown != "![my_diagram](/images/my_diagram.png)" {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(s.SourceDir, "images", "my_diagram.png")); err != nil {
		t.Errorf("image not written: %v", err)
	}

	r = callTool(t, srv, "add_image", map[string]any{"data": uri, "filename": "my diagram.png"})
	if !r.IsError {
		t.Error("existing file should not be overwritten")
	}

	r = callTool(t, srv, "add_image", map[string]any{"data": uri})
	if r.IsError || !strings.HasSuffix(strings.TrimSuffix(resultText(r), `"}`), ".png)") {
		t.Errorf("generated name = %s", resultText(r))
	}
}

func TestAddImage_Rejects(t *testing.T) {
	srv, _ := testServer(t, nil)
	cases := map[string]map[string]any{
		"not a data uri":   {"data": "https://example.com/a.png"},
		"not base64":       {"data": "data:image/png,raw"},
		"unknown type":     {"data": "data:text/plain;base64,aGVsbG8="},
		"content mismatch": {"data": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))},
	}
	for name, args := range cases {
		if r := callTool(t, srv, "add_image", args); !r.IsError {
			t.Errorf("%s: expected error, got %s", name, resultText(r))
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("../../etc/x.png", ".png"); got != "x.png" {
		t.Errorf("traversal = %q", got)
	}
	if got := sanitizeFilename("photo", ".jpg"); got != "photo.jpg" {
		t.Errorf("missing ext = %q", got)
	}
	if got := sanitizeFilename("", ".gif"); !strings.HasSuffix(got, ".gif") || len(got) != 36+4 {
		t.Errorf("generated = %q", got)
	}
}
