package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/cart"
	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/fjod/go_cart/storefront-session/internal/search"
	"github.com/fjod/go_cart/storefront-session/internal/store"
	"github.com/fjod/go_cart/storefront-session/internal/wishlist"
	"github.com/google/uuid"
)

const (
	// IdleTTL is how long an unused session keeps its in-memory state
	IdleTTL = 30 * time.Minute

	// CleanupInterval is how often idle sessions are evicted
	CleanupInterval = time.Minute
)

// ErrNoSession means a handler asked for the session outside the session middleware
var ErrNoSession = errors.New("session accessed outside of session scope")

// Session bundles the stores of one visitor. The cart lives only as long as
// the session; wishlist and recent searches are persisted by the backend.
type Session struct {
	ID       string
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Search   *search.Session

	lastSeen time.Time
}

// AddToCart is the cart adder handed to Wishlist.MoveToCart
func (s *Session) AddToCart(product domain.Product, quantity int) error {
	s.Cart.AddToCart(product, quantity)
	return nil
}

type Config struct {
	Cart     cart.Options
	Search   search.Options
	IdleTTL  time.Duration
	Interval time.Duration
}

// Registry creates sessions on first use and evicts idle ones in the background
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	backend  store.Backend
	searcher search.Searcher
	cfg      Config
	now      func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewRegistry(backend store.Backend, searcher search.Searcher, cfg Config) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = IdleTTL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = CleanupInterval
	}

	r := &Registry{
		sessions:    make(map[string]*Session),
		backend:     backend,
		searcher:    searcher,
		cfg:         cfg,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

// NewID returns a fresh session id
func NewID() string {
	return uuid.New().String()
}

// GetOrCreate returns the session for id, building its stores when it is new.
// The wishlist and recent searches of a returning visitor are rehydrated from the backend.
func (r *Registry) GetOrCreate(id string) *Session {
	now := r.now()

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		r.touch(s, now)
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.lastSeen = now
		return s
	}

	s = &Session{
		ID:       id,
		Cart:     cart.New(r.cfg.Cart),
		Wishlist: wishlist.ForOwner(r.backend, id),
		Search:   search.ForOwner(r.searcher, r.backend, id, r.cfg.Search),
		lastSeen: now,
	}
	r.sessions[id] = s
	return s
}

// Get returns a live session without creating one
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Cart returns the cart of a live session
func (r *Registry) Cart(id string) (*cart.Cart, bool) {
	s, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return s.Cart, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) touch(s *Session, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.lastSeen = now
}

// cleanupLoop periodically evicts idle sessions
func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.cfg.IdleTTL)
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			s.Search.Close()
			delete(r.sessions, id)
		}
	}
}

// Close stops the background cleanup and waits for it to finish
func (r *Registry) Close() error {
	close(r.stopCleanup)
	r.wg.Wait()
	return nil
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session. It panics with ErrNoSession when
// the session middleware did not run, which is a wiring bug.
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	if !ok || s == nil {
		panic(ErrNoSession)
	}
	return s
}
