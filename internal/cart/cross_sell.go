package cart

import "github.com/fjod/go_cart/storefront-session/internal/domain"

func price(v float64) *float64 { return &v }

// DefaultCrossSell is the static promotional catalog shown next to the cart
func DefaultCrossSell() []domain.Product {
	return []domain.Product{
		{ID: "cs-cleaning-kit", Name: "Care & Cleaning Kit", Image: "/images/cross-sell/cleaning-kit.jpg", Category: "Accessories", Price: 14.99},
		{ID: "cs-gift-wrap", Name: "Premium Gift Wrap", Image: "/images/cross-sell/gift-wrap.jpg", Category: "Services", Price: 4.99},
		{ID: "cs-extended-warranty", Name: "2-Year Extended Warranty", Image: "/images/cross-sell/warranty.jpg", Category: "Services", Price: 24.99, OriginalPrice: price(19.99)},
		{ID: "cs-storage-bag", Name: "Protective Storage Bag", Image: "/images/cross-sell/storage-bag.jpg", Category: "Accessories", Price: 9.99},
	}
}

// CrossSell returns the promotional items that are not already in the cart
func (c *Cart) CrossSell() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inCart := make(map[string]struct{}, len(c.items))
	for _, item := range c.items {
		inCart[item.ID] = struct{}{}
	}

	out := make([]domain.Product, 0, len(c.crossSell))
	for _, p := range c.crossSell {
		if _, ok := inCart[p.ID]; ok {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}
