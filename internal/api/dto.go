package api

import "github.com/starford/ghmd/internal/catalog"

// PostListResponse wraps a page of listed items.
type PostListResponse struct {
	Posts  []catalog.Entry `json:"posts"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// PostDetail is a catalog entry with its raw markdown body.
type PostDetail struct {
	catalog.Entry
	Body string `json:"body,omitempty"`
}

// SearchResponse wraps search hits.
type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []catalog.SearchResult `json:"results"`
}

// TagsResponse lists tags in use.
type TagsResponse struct {
	Tags []catalog.TagCount `json:"tags"`
}
