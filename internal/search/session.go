package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/fjod/go_cart/storefront-session/internal/store"
)

const (
	// RecentNamespace is the storage namespace prefix for recent searches
	RecentNamespace = "recent_searches"

	MinQueryLength   = 2
	DefaultMaxRecent = 5
	DefaultTimeout   = 5 * time.Second
)

// Searcher executes product queries. Ranking is the searcher's concern.
type Searcher interface {
	SearchProducts(ctx context.Context, query string) ([]domain.ProductSummary, error)
}

// SuggestionSource supplies the static popular-search list
type SuggestionSource interface {
	PopularSuggestions() []string
}

// Navigator is told about committed queries, e.g. to redirect to a results page
type Navigator func(query string)

// RecentSearch is one committed query in the recency list
type RecentSearch string

func (r RecentSearch) Key() string { return string(r) }

type Options struct {
	Timeout     time.Duration
	MaxRecent   int
	Suggestions SuggestionSource
	Navigate    Navigator
}

// Session holds the search state of one visitor.
//
// The session does not debounce: callers are expected to wait for input to
// pause (around 300ms) before calling HandleSearch. Only the response of the
// most recently issued query is ever applied.
type Session struct {
	searcher    Searcher
	recent      *store.PersistentList[RecentSearch]
	timeout     time.Duration
	maxRecent   int
	suggestions SuggestionSource
	navigate    Navigator

	mu          sync.Mutex
	query       string
	results     []domain.ProductSummary
	isSearching bool
	generation  uint64
	cancel      context.CancelFunc
}

func NewSession(searcher Searcher, recent *store.PersistentList[RecentSearch], opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRecent <= 0 {
		opts.MaxRecent = DefaultMaxRecent
	}
	return &Session{
		searcher:    searcher,
		recent:      recent,
		timeout:     opts.Timeout,
		maxRecent:   opts.MaxRecent,
		suggestions: opts.Suggestions,
		navigate:    opts.Navigate,
		results:     []domain.ProductSummary{},
	}
}

// ForOwner builds a session whose recency list is persisted under "recent_searches:<owner>"
func ForOwner(searcher Searcher, backend store.Backend, owner string, opts Options) *Session {
	recent := store.NewPersistentList[RecentSearch](backend, RecentNamespace+":"+owner)
	return NewSession(searcher, recent, opts)
}

// HandleSearch records query and, for queries of at least MinQueryLength
// characters, runs it against the searcher. It blocks until the search
// finishes, times out or is superseded.
func (s *Session) HandleSearch(ctx context.Context, query string) {
	trimmed := strings.TrimSpace(query)

	s.mu.Lock()
	s.query = query
	s.stopInFlight()
	if len([]rune(trimmed)) < MinQueryLength {
		s.results = []domain.ProductSummary{}
		s.isSearching = false
		s.mu.Unlock()
		return
	}

	s.generation++
	gen := s.generation
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	s.cancel = cancel
	s.isSearching = true
	s.mu.Unlock()

	defer cancel()
	results, err := s.searcher.SearchProducts(reqCtx, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// superseded by a newer query, a submit or a close
		return
	}
	s.cancel = nil
	s.isSearching = false
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("search %q failed: %v \n", trimmed, err)
		}
		s.results = []domain.ProductSummary{}
		return
	}
	if results == nil {
		results = []domain.ProductSummary{}
	}
	s.results = results
}

// HandleSearchSubmit commits query to the recency list, clears the active
// results and signals navigation. Queries shorter than MinQueryLength are rejected.
func (s *Session) HandleSearchSubmit(ctx context.Context, query string) bool {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < MinQueryLength {
		return false
	}

	s.addRecent(ctx, trimmed)

	s.mu.Lock()
	s.stopInFlight()
	s.query = trimmed
	s.results = []domain.ProductSummary{}
	s.isSearching = false
	navigate := s.navigate
	s.mu.Unlock()

	if navigate != nil {
		navigate(trimmed)
	}
	return true
}

// Close is called when the search surface goes away: in-flight requests are
// cancelled and their results will never be applied.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopInFlight()
	s.query = ""
	s.results = []domain.ProductSummary{}
	s.isSearching = false
}

func (s *Session) RecentSearches(ctx context.Context) []string {
	recent := s.recent.List(ctx)
	out := make([]string, len(recent))
	for i, r := range recent {
		out[i] = string(r)
	}
	return out
}

func (s *Session) ClearRecentSearches(ctx context.Context) bool {
	if err := s.recent.Clear(ctx); err != nil {
		log.Printf("clear recent searches error: %v \n", err)
		return false
	}
	return true
}

func (s *Session) PopularSuggestions() []string {
	if s.suggestions == nil {
		return []string{}
	}
	return append([]string{}, s.suggestions.PopularSuggestions()...)
}

func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Session) Results() []domain.ProductSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ProductSummary{}, s.results...)
}

func (s *Session) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSearching
}

type State struct {
	Query          string                  `json:"query"`
	Results        []domain.ProductSummary `json:"results"`
	IsSearching    bool                    `json:"isSearching"`
	RecentSearches []string                `json:"recentSearches"`
}

func (s *Session) State(ctx context.Context) State {
	recent := s.RecentSearches(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Query:          s.query,
		Results:        append([]domain.ProductSummary{}, s.results...),
		IsSearching:    s.isSearching,
		RecentSearches: recent,
	}
}

// addRecent prepends query, drops older duplicates and caps the list
func (s *Session) addRecent(ctx context.Context, query string) {
	err := s.recent.Update(ctx, func(current []RecentSearch) []RecentSearch {
		next := make([]RecentSearch, 0, s.maxRecent)
		next = append(next, RecentSearch(query))
		for _, r := range current {
			if len(next) == s.maxRecent {
				break
			}
			if string(r) != query {
				next = append(next, r)
			}
		}
		return next
	})
	if err != nil {
		log.Printf("save recent searches error: %v \n", err)
	}
}

// stopInFlight invalidates and cancels the running request. Callers hold mu.
func (s *Session) stopInFlight() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
