package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ghmd/internal/apperr"
)

const (
	maxImageSize = 10 << 20 // 10 MB
	imageDir     = "images"
)

var (
	imageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".webp": true, ".svg": true,
	}

	mimeToExt = map[string]string{
		"image/png":     ".png",
		"image/jpeg":    ".jpg",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
	}

	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

type imageResult struct {
	Path     string `json:"path"`
	Markdown string `json:"markdown"`
}

func (s *Server) addImage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataURI, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, ext, err := decodeDataURI(dataURI)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxImageSize {
		return mcp.NewToolResultError(fmt.Sprintf("image too large: %d bytes (max %d)", len(data), maxImageSize)), nil
	}

	name := sanitizeFilename(req.GetString("filename", ""), ext)
	if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported image extension: %s", filepath.Ext(name))), nil
	}
	if err := validateMagicBytes(data, strings.ToLower(filepath.Ext(name))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rel := path.Join(imageDir, name)
	if _, readErr := s.source.Read(rel); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("file already exists: %s", rel)), nil
	} else if !errors.Is(readErr, apperr.ErrNotFound) {
		return mcp.NewToolResultError(readErr.Error()), nil
	}
	if err := s.source.Write(rel, data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save image: %v", err)), nil
	}

	alt := strings.TrimSuffix(name, filepath.Ext(name))
	out, _ := json.Marshal(imageResult{
		Path:     rel,
		Markdown: fmt.Sprintf("![%s](/%s)", alt, rel),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a base64 data:[<mediatype>];base64,<data> URI and
// returns the bytes with the extension matching its media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("data must be a data: URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}

	mime, _, _ := strings.Cut(strings.TrimSuffix(meta, ";base64"), ";")
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported media type: %s", mime)
	}
	return data, ext, nil
}

// sanitizeFilename keeps the base name with safe characters only. An empty
// name becomes a random one with ext.
func sanitizeFilename(name, ext string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeNameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" || strings.HasPrefix(name, "..") {
		return uuid.NewString() + ext
	}
	if filepath.Ext(name) == "" {
		name += ext
	}
	return name
}

// validateMagicBytes verifies that content matches the declared extension.
func validateMagicBytes(data []byte, ext string) error {
	if ext == ".svg" {
		prefix := data[:min(len(data), 1024)]
		if !bytes.Contains(prefix, []byte("<svg")) {
			return fmt.Errorf("content is not an SVG image")
		}
		return nil
	}

	detected := http.DetectContentType(data)
	got := mimeToExt[strings.Split(detected, ";")[0]]
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if got != ext {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
