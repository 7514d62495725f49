package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ghmd/internal/apperr"
	"github.com/starford/ghmd/internal/catalog"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Handler serves the catalog over JSON.
type Handler struct {
	store  catalog.Store
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(store catalog.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// postPath extracts the source path after /api/posts/. Encoded slashes
// (go%2Fintro.md) are accepted.
func postPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	offset = max(offset, 0)
	return limit, offset
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	tag := r.URL.Query().Get("tag")

	items, total, err := h.store.List(r.Context(), tag, limit, offset)
	if err != nil {
		h.logger.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total, Limit: limit, Offset: offset})
}

// GetPost handles GET /api/posts/*.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	entry, err := h.store.Get(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			h.logger.Error("get post failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSONCached(w, r, PostDetail{Entry: *entry, Body: entry.Body})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := pageParams(r)
	results, err := h.store.Search(r.Context(), q, limit)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags(r.Context())
	if err != nil {
		h.logger.Error("list tags failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if tags == nil {
		tags = []catalog.TagCount{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}
