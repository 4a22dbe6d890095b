package domain

import "strings"

// DefaultVariant is used when a product carries no variant descriptor
const DefaultVariant = "Standard"

// Product is the loosely shaped product record the storefront passes around.
// Optional fields are pointers so that "missing" can be told apart from zero values.
type Product struct {
	ID            string   `json:"id" bson:"id"`
	Name          string   `json:"name" bson:"name"`
	Image         string   `json:"image" bson:"image"`
	Category      string   `json:"category" bson:"category"`
	Price         float64  `json:"price" bson:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty" bson:"original_price,omitempty"`
	Variant       string   `json:"variant,omitempty" bson:"variant,omitempty"`
	InStock       *bool    `json:"inStock,omitempty" bson:"in_stock,omitempty"`
}

// EffectivePrice returns originalPrice when present, price otherwise
func (p Product) EffectivePrice() float64 {
	return effectivePrice(p.Price, p.OriginalPrice)
}

// VariantOrDefault returns the variant, falling back to DefaultVariant
func (p Product) VariantOrDefault() string {
	if strings.TrimSpace(p.Variant) == "" {
		return DefaultVariant
	}
	return p.Variant
}

// Available reports stock availability; only an explicit false means out of stock
func (p Product) Available() bool {
	return p.InStock == nil || *p.InStock
}

// Key identifies the product inside keyed collections such as the wishlist
func (p Product) Key() string {
	return p.ID
}

// LineItem is a cart row. Display fields are copied at add time.
type LineItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Quantity      int      `json:"quantity"`
	Variant       string   `json:"variant"`
	InStock       bool     `json:"inStock"`
}

// EffectivePrice returns the unit price used in totals
func (i LineItem) EffectivePrice() float64 {
	return effectivePrice(i.Price, i.OriginalPrice)
}

// LineTotal is the effective unit price times quantity
func (i LineItem) LineTotal() float64 {
	return i.EffectivePrice() * float64(i.Quantity)
}

// NewLineItem snapshots product into a cart row, applying the defaulting rules
func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ID:            p.ID,
		Name:          p.Name,
		Image:         p.Image,
		Category:      p.Category,
		Price:         p.Price,
		OriginalPrice: copyFloat(p.OriginalPrice),
		Quantity:      quantity,
		Variant:       p.VariantOrDefault(),
		InStock:       p.Available(),
	}
}

// ProductSummary is what the catalog search collaborator returns
type ProductSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
}

// Product converts a search hit into a product record
func (s ProductSummary) Product() Product {
	return Product{
		ID:            s.ID,
		Name:          s.Name,
		Image:         s.Image,
		Category:      s.Category,
		Price:         s.Price,
		OriginalPrice: copyFloat(s.OriginalPrice),
	}
}

// Clone returns a deep copy so callers never alias the pointer fields
func (p Product) Clone() Product {
	c := p
	c.OriginalPrice = copyFloat(p.OriginalPrice)
	if p.InStock != nil {
		v := *p.InStock
		c.InStock = &v
	}
	return c
}

func effectivePrice(price float64, original *float64) float64 {
	if original != nil {
		return *original
	}
	return price
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
