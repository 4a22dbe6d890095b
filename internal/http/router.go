package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

// NewRouter wires the session API. Panics raised by handlers, including a
// missing session, are turned into 500 responses by middleware.Recoverer.
func NewRouter(registry *session.Registry, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = 1 << 20 // 1MB
	}

	cartHandler := NewCartHandler(cfg.MaxRequestBodySize)
	wishlistHandler := NewWishlistHandler(cfg.MaxRequestBodySize)
	searchHandler := NewSearchHandler(cfg.MaxRequestBodySize)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(registry))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
			r.Post("/open", cartHandler.OpenCart)
			r.Post("/close", cartHandler.CloseCart)
			r.Get("/cross-sell", cartHandler.CrossSell)
			r.Post("/checkout", cartHandler.Checkout)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.GetWishlist)
			r.Delete("/", wishlistHandler.ClearWishlist)
			r.Post("/items", wishlistHandler.AddItem)
			r.Get("/items/{id}", wishlistHandler.Membership)
			r.Delete("/items/{id}", wishlistHandler.RemoveItem)
			r.Post("/items/{id}/move-to-cart", wishlistHandler.MoveToCart)
			r.Post("/toggle", wishlistHandler.Toggle)
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.Search)
			r.Post("/submit", searchHandler.Submit)
			r.Post("/close", searchHandler.Close)
			r.Get("/recent", searchHandler.RecentSearches)
			r.Delete("/recent", searchHandler.ClearRecentSearches)
			r.Get("/suggestions", searchHandler.Suggestions)
		})
	})

	return otelhttp.NewHandler(r, "storefront-session")
}
