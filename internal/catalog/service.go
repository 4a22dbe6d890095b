package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSearchLimit   = 20
	DefaultLookupTimeout = 5 * time.Second
)

var ErrCatalogUnavailable = errors.New("catalog unavailable")

type ServiceOptions struct {
	Limit int
	// Cache may be nil, searches then always go to the finder
	Cache ResultCache
	// consecutive failures that open the breaker
	MaxFailures uint32
	OpenTimeout time.Duration
	// upper bound for one shared lookup
	LookupTimeout time.Duration
}

// Service is the search collaborator used by search sessions.
// Identical concurrent queries share one lookup, results are cached briefly
// and a circuit breaker stops hammering a failing catalog.
type Service struct {
	finder  ProductFinder
	cache   ResultCache
	limit   int
	timeout time.Duration
	sfg     singleflight.Group // Prevents cache stampede
	breaker *gobreaker.CircuitBreaker[[]domain.ProductSummary]
}

func NewService(finder ProductFinder, opts ServiceOptions) *Service {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}

	maxFailures := opts.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[[]domain.ProductSummary](gobreaker.Settings{
		Name:        "catalog-search",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// a caller giving up is not a catalog fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s \n", name, from, to)
		},
	})

	return &Service{
		finder:  finder,
		cache:   opts.Cache,
		limit:   opts.Limit,
		timeout: opts.LookupTimeout,
		breaker: breaker,
	}
}

// SearchProducts looks query up once for all concurrent callers. The shared
// lookup runs on its own deadline, so one caller giving up never fails the others.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]domain.ProductSummary, error) {
	key := normalizeQuery(query)
	if key == "" {
		return []domain.ProductSummary{}, nil
	}

	// detached from the first caller, keeps its values (trace ids) but not its cancellation
	lookupCtx := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		ctxLookup, cancel := context.WithTimeout(lookupCtx, s.timeout)
		defer cancel()
		return s.lookup(ctxLookup, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.ProductSummary), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) lookup(ctx context.Context, key string) ([]domain.ProductSummary, error) {
	if s.cache != nil {
		results, err := s.cache.Get(ctx, key)
		if err == nil {
			return results, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("search cache get error: %v \n", err) // log cache error but continue
		}
	}

	results, err := s.breaker.Execute(func() ([]domain.ProductSummary, error) {
		return s.finder.SearchProducts(ctx, key, s.limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func() {
			ctxSet, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctxSet, key, results); errSet != nil {
				log.Printf("search cache set error: %v \n", errSet)
			}
		}()
	}

	return results, nil
}

// normalizeQuery lower-cases and collapses whitespace so equivalent queries share cache entries
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
