// Package mcpserver exposes the blog to LLM clients over the Model Context
// Protocol (stdio transport).
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ghmd/internal/apperr"
	"github.com/starford/ghmd/internal/catalog"
	"github.com/starford/ghmd/internal/storage"
)

// ContractURI is the resource URI of the frontmatter contract.
const ContractURI = "ghmd://frontmatter"

// BuildStats summarizes a build triggered through the build_site tool.
type BuildStats struct {
	Posts    int
	Pages    int
	Listed   int
	Tags     int
	Duration time.Duration
	Output   string
}

// BuildFunc rebuilds the site and refreshes the catalog.
type BuildFunc func(ctx context.Context) (*BuildStats, error)

// Server wraps the MCP server with the blog tools.
type Server struct {
	mcp     *server.MCPServer
	source  storage.Provider
	catalog catalog.Store
	build   BuildFunc
}

// New creates an MCP server. build may be nil, in which case build_site is
// not registered.
func New(source storage.Provider, store catalog.Store, build BuildFunc, version string) *Server {
	s := &Server{source: source, catalog: store, build: build}

	s.mcp = server.NewMCPServer(
		"ghmd",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List published posts and pages in index order (newest first)."),
		mcp.WithString("tag", mcp.Description("Only items carrying this tag")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Items to skip")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Search post titles, descriptions, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the raw source of a Markdown post or HTML page, including drafts."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the blog source (e.g. go/intro.md)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List tags in use with their URL slug and item count."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the post format: frontmatter keys, defaults and Markdown extensions. "+
			"Read it before writing a post."),
	), s.getContract)

	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Store an image under images/ in the blog source and return a Markdown snippet for it."),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64 data URI (data:image/png;base64,...)")),
		mcp.WithString("filename", mcp.Description("Optional file name; generated when empty")),
	), s.addImage)

	if build != nil {
		s.mcp.AddTool(mcp.NewTool("build_site",
			mcp.WithDescription("Rebuild the static site from the source directory."),
		), s.buildSite)
	}

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Post Format",
			mcp.WithResourceDescription("Frontmatter keys and Markdown features supported by ghmd."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.catalog.List(ctx,
		req.GetString("tag", ""),
		req.GetInt("limit", 50),
		req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if items == nil {
		items = []catalog.Entry{}
	}
	return jsonResult(map[string]any{"posts": items, "total": total})
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.catalog.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readPost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".html", ".htm":
	default:
		return mcp.NewToolResultError(fmt.Sprintf("not a post or page: %s", path)), nil
	}
	data, err := s.source.Read(path)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.catalog.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if tags == nil {
		tags = []catalog.TagCount{}
	}
	return jsonResult(tags)
}

func (s *Server) buildSite(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.build(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"posts":       stats.Posts,
		"html_pages":  stats.Pages,
		"listed":      stats.Listed,
		"tags":        stats.Tags,
		"output":      stats.Output,
		"duration_ms": stats.Duration.Milliseconds(),
	})
}

func (s *Server) getContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}
