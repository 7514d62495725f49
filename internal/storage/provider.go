// Package storage provides rooted file access for blog sources and build
// output.
package storage

import "time"

// FileInfo describes a file found by List.
type FileInfo struct {
	// Path is relative to the provider root and uses "/" separators.
	Path    string
	ModTime time.Time
	Size    int64
}

// ListOptions narrows List.
type ListOptions struct {
	// Exts keeps files whose extension matches case-insensitively, e.g. ".md".
	// Empty keeps every file.
	Exts []string
	// SkipDirs are root-relative directories that are not descended into.
	SkipDirs []string
}

// Provider is the interface for rooted file operations.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// Abs resolves path (relative to root) to an absolute path inside root.
	Abs(path string) (string, error)
	// List walks dir (relative to root) in lexical order.
	List(dir string, opts ListOptions) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
