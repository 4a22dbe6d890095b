package wishlist

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/fjod/go_cart/storefront-session/internal/store"
)

// Namespace is the storage namespace prefix for wishlists
const Namespace = "wishlist"

// AddToCartFunc receives a copy of the wishlist entry when it is moved to a cart.
// Returning an error aborts the move.
type AddToCartFunc func(product domain.Product, quantity int) error

// Wishlist keeps at most one entry per product id and persists every mutation.
// Backend failures are logged and reported as false, they never reach the caller.
type Wishlist struct {
	// serializes read-check-write sequences such as toggle and move
	mu    sync.Mutex
	items *store.PersistentList[domain.Product]
}

func New(items *store.PersistentList[domain.Product]) *Wishlist {
	return &Wishlist{items: items}
}

// ForOwner builds the wishlist persisted under "wishlist:<owner>"
func ForOwner(backend store.Backend, owner string) *Wishlist {
	return New(store.NewPersistentList[domain.Product](backend, Namespace+":"+owner))
}

func (w *Wishlist) IsInWishlist(ctx context.Context, id string) bool {
	_, ok := w.items.Find(ctx, id)
	return ok
}

// AddToWishlist inserts product when absent; an existing entry counts as success
func (w *Wishlist) AddToWishlist(ctx context.Context, product domain.Product) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(ctx, product)
}

// RemoveFromWishlist deletes the entry; removing an absent id counts as success
func (w *Wishlist) RemoveFromWishlist(ctx context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.remove(ctx, id)
}

// ToggleWishlist adds an absent product or removes a present one and returns
// whether the product is in the wishlist afterwards
func (w *Wishlist) ToggleWishlist(ctx context.Context, product domain.Product) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.items.Find(ctx, product.ID); ok {
		return !w.remove(ctx, product.ID)
	}
	return w.add(ctx, product)
}

// MoveToCart hands a copy of the entry to addToCart with quantity 1 and removes it
// from the wishlist only when the hand-off succeeded. False when id is not present.
func (w *Wishlist) MoveToCart(ctx context.Context, id string, addToCart AddToCartFunc) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, ok := w.items.Find(ctx, id)
	if !ok {
		return false
	}

	if err := safeAdd(addToCart, entry.Clone()); err != nil {
		log.Printf("wishlist move to cart error for %s: %v \n", id, err)
		return false
	}

	return w.remove(ctx, id)
}

func (w *Wishlist) Items(ctx context.Context) []domain.Product {
	return w.items.List(ctx)
}

func (w *Wishlist) Count(ctx context.Context) int {
	return len(w.items.List(ctx))
}

// Total sums the effective price of all entries
func (w *Wishlist) Total(ctx context.Context) float64 {
	var sum float64
	for _, p := range w.items.List(ctx) {
		sum += p.EffectivePrice()
	}
	return math.Round(sum*100) / 100
}

func (w *Wishlist) ClearWishlist(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.items.Clear(ctx); err != nil {
		log.Printf("wishlist clear error: %v \n", err)
		return false
	}
	return true
}

func (w *Wishlist) add(ctx context.Context, product domain.Product) bool {
	if strings.TrimSpace(product.ID) == "" {
		log.Printf("wishlist add rejected: product without id \n")
		return false
	}
	if _, ok := w.items.Find(ctx, product.ID); ok {
		return true
	}
	if err := w.items.Upsert(ctx, product.Clone()); err != nil {
		log.Printf("wishlist add error for %s: %v \n", product.ID, err)
		return false
	}
	return true
}

func (w *Wishlist) remove(ctx context.Context, id string) bool {
	if err := w.items.RemoveByID(ctx, id); err != nil {
		log.Printf("wishlist remove error for %s: %v \n", id, err)
		return false
	}
	return true
}

// safeAdd turns a panicking adder into an error so the entry stays in place
func safeAdd(addToCart AddToCartFunc, product domain.Product) (err error) {
	if addToCart == nil {
		return fmt.Errorf("no cart adder supplied")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cart adder panicked: %v", r)
		}
	}()
	return addToCart(product, 1)
}
