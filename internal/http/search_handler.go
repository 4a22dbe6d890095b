package http

import (
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront-session/internal/search"
	"github.com/fjod/go_cart/storefront-session/internal/session"
)

// SearchHandler exposes the search session. Debouncing keystrokes is the
// client's job; every GET runs the query it carries.
type SearchHandler struct {
	maxBodySize int64
}

func NewSearchHandler(maxBodySize int64) *SearchHandler {
	return &SearchHandler{maxBodySize: maxBodySize}
}

type SubmitRequestDTO struct {
	Query string `json:"query"`
}

type SubmitResponse struct {
	Accepted       bool     `json:"accepted"`
	Location       string   `json:"location,omitempty"`
	RecentSearches []string `json:"recentSearches"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	s.Search.HandleSearch(r.Context(), r.URL.Query().Get("q"))
	respondJSON(w, http.StatusOK, s.Search.State(r.Context()))
}

func (h *SearchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	var req SubmitRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}

	resp := SubmitResponse{Accepted: s.Search.HandleSearchSubmit(r.Context(), req.Query)}
	if resp.Accepted {
		resp.Location = "/search?q=" + url.QueryEscape(s.Search.Query())
	}
	resp.RecentSearches = s.Search.RecentSearches(r.Context())
	respondJSON(w, http.StatusOK, resp)
}

// Close is sent when the search surface is dismissed
func (h *SearchHandler) Close(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Search.Close()
	respondJSON(w, http.StatusOK, s.Search.State(r.Context()))
}

func (h *SearchHandler) RecentSearches(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string][]string{
		"recentSearches": s.Search.RecentSearches(r.Context()),
	})
}

func (h *SearchHandler) ClearRecentSearches(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	success := s.Search.ClearRecentSearches(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        success,
		"recentSearches": s.Search.RecentSearches(r.Context()),
	})
}

func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions":    s.Search.PopularSuggestions(),
		"minQueryLength": search.MinQueryLength,
	})
}
