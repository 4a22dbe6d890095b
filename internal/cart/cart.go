package cart

import (
	"math"
	"sync"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
)

const (
	DefaultFreeShippingThreshold = 100.00
	DefaultShippingRate          = 9.99
)

// Options configures shipping pricing and the cross-sell catalog. Zero values use the defaults.
type Options struct {
	FreeShippingThreshold float64
	ShippingRate          float64
	CrossSell             []domain.Product
}

// Cart holds one session's line items in memory. It is never persisted.
//
// Adding never merges rows: every AddToCart appends a new line item, even for a
// product id that is already present.
type Cart struct {
	mu        sync.RWMutex
	items     []domain.LineItem
	open      bool
	threshold float64
	rate      float64
	crossSell []domain.Product
}

// New returns an empty, closed cart
func New(opts Options) *Cart {
	if opts.FreeShippingThreshold <= 0 {
		opts.FreeShippingThreshold = DefaultFreeShippingThreshold
	}
	if opts.ShippingRate <= 0 {
		opts.ShippingRate = DefaultShippingRate
	}
	if opts.CrossSell == nil {
		opts.CrossSell = DefaultCrossSell()
	}
	return &Cart{
		items:     []domain.LineItem{},
		threshold: opts.FreeShippingThreshold,
		rate:      opts.ShippingRate,
		crossSell: opts.CrossSell,
	}
}

// AddToCart appends a snapshot of product and opens the cart view.
// A quantity below 1 falls back to 1.
func (c *Cart) AddToCart(product domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, domain.NewLineItem(product, quantity))
	c.open = true
}

// UpdateQuantity sets the quantity of every row with itemID. Values below 1 are ignored.
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	if quantity < 1 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].Quantity = quantity
		}
	}
}

// RemoveItem drops every row with itemID
func (c *Cart) RemoveItem(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// ClearCart drops every line item and leaves the open state untouched
func (c *Cart) ClearCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = []domain.LineItem{}
}

// Items returns a copy of the line items in insertion order
func (c *Cart) Items() []domain.LineItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Subtotal sums effective unit price times quantity
func (c *Cart) Subtotal() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subtotal()
}

// TotalItems sums quantities across rows, so two rows of the same product both count
func (c *Cart) TotalItems() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Shipping is free for an empty cart or once the subtotal reaches the threshold
func (c *Cart) Shipping() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shipping()
}

func (c *Cart) QualifiesForFreeShipping() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subtotal() >= c.threshold
}

// AmountUntilFreeShipping is how much more the subtotal needs to reach the threshold
func (c *Cart) AmountUntilFreeShipping() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return math.Max(0, roundCents(c.threshold-c.subtotal()))
}

// FreeShippingThreshold is the subtotal at which shipping becomes free
func (c *Cart) FreeShippingThreshold() float64 {
	return c.threshold
}

// Total is subtotal plus shipping, rounded to cents
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return roundCents(c.subtotal() + c.shipping())
}

func (c *Cart) OpenCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
}

func (c *Cart) CloseCart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

func (c *Cart) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Summary is a consistent snapshot of the cart and its derived totals
type Summary struct {
	Items                   []domain.LineItem `json:"items"`
	IsOpen                  bool              `json:"isOpen"`
	TotalItems              int               `json:"totalItems"`
	Subtotal                float64           `json:"subtotal"`
	Shipping                float64           `json:"shipping"`
	Total                   float64           `json:"total"`
	FreeShippingThreshold   float64           `json:"freeShippingThreshold"`
	AmountUntilFreeShipping float64           `json:"amountUntilFreeShipping"`
}

func (c *Cart) Summary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]domain.LineItem, len(c.items))
	copy(items, c.items)

	totalItems := 0
	for _, item := range c.items {
		totalItems += item.Quantity
	}

	subtotal := c.subtotal()
	shipping := c.shipping()
	return Summary{
		Items:                   items,
		IsOpen:                  c.open,
		TotalItems:              totalItems,
		Subtotal:                subtotal,
		Shipping:                shipping,
		Total:                   roundCents(subtotal + shipping),
		FreeShippingThreshold:   c.threshold,
		AmountUntilFreeShipping: math.Max(0, roundCents(c.threshold-subtotal)),
	}
}

func (c *Cart) subtotal() float64 {
	var sum float64
	for _, item := range c.items {
		sum += item.LineTotal()
	}
	return roundCents(sum)
}

func (c *Cart) shipping() float64 {
	if len(c.items) == 0 || c.subtotal() >= c.threshold {
		return 0
	}
	return c.rate
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
