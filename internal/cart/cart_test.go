package cart

import (
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAddToCart_AppendsSnapshotWithDefaults(t *testing.T) {
	sut := New(Options{})
	product := domain.Product{ID: "1", Name: "Lamp", Image: "lamp.jpg", Category: "Lighting", Price: 10}

	sut.AddToCart(product, 2)
	product.Name = "changed after add"

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Lamp", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, domain.DefaultVariant, items[0].Variant)
	assert.True(t, items[0].InStock)
	assert.True(t, sut.IsOpen(), "adding opens the cart view")
}

func TestAddToCart_ExplicitOutOfStockAndVariant(t *testing.T) {
	sut := New(Options{})
	sut.AddToCart(domain.Product{ID: "1", Price: 5, Variant: "Blue / XL", InStock: ptr(false)}, 1)

	item := sut.Items()[0]
	assert.Equal(t, "Blue / XL", item.Variant)
	assert.False(t, item.InStock)
}

func TestAddToCart_QuantityBelowOneDefaultsToOne(t *testing.T) {
	sut := New(Options{})
	sut.AddToCart(domain.Product{ID: "1", Price: 5}, 0)
	assert.Equal(t, 1, sut.TotalItems())
}

func TestAddToCart_DoesNotMergeSameProduct(t *testing.T) {
	sut := New(Options{})
	p := domain.Product{ID: "1", Price: 10}

	sut.AddToCart(p, 1)
	sut.AddToCart(p, 1)

	assert.Len(t, sut.Items(), 2)
	assert.Equal(t, 2, sut.TotalItems())
}

func TestTotals(t *testing.T) {
	sut := New(Options{})
	sut.AddToCart(domain.Product{ID: "a", Price: 10}, 2)
	sut.AddToCart(domain.Product{ID: "b", Price: 20, OriginalPrice: ptr(15.0)}, 1)

	assert.Equal(t, 35.0, sut.Subtotal())
	assert.Equal(t, 3, sut.TotalItems())
}

func TestUpdateQuantity(t *testing.T) {
	sut := New(Options{})
	sut.AddToCart(domain.Product{ID: "a", Price: 10}, 1)
	sut.AddToCart(domain.Product{ID: "b", Price: 20}, 1)

	sut.UpdateQuantity("a", 4)
	assert.Equal(t, 60.0, sut.Subtotal())

	// values below one are ignored
	sut.UpdateQuantity("a", 0)
	sut.UpdateQuantity("a", -3)
	assert.Equal(t, 4, sut.Items()[0].Quantity)

	// unknown ids are ignored
	sut.UpdateQuantity("missing", 9)
	assert.Equal(t, 5, sut.TotalItems())
}

func TestUpdateQuantity_UpdatesEveryMatchingRow(t *testing.T) {
	sut := New(Options{})
	p := domain.Product{ID: "a", Price: 1}
	sut.AddToCart(p, 1)
	sut.AddToCart(p, 2)

	sut.UpdateQuantity("a", 3)

	for _, item := range sut.Items() {
		assert.Equal(t, 3, item.Quantity)
	}
}

func TestRemoveItem_RemovesEveryMatchingRow(t *testing.T) {
	sut := New(Options{})
	sut.AddToCart(domain.Product{ID: "a", Price: 1}, 1)
	sut.AddToCart(domain.Product{ID: "b", Price: 1}, 1)
	sut.AddToCart(domain.Product{ID: "a", Price: 1}, 1)

	sut.RemoveItem("a")

	items := sut.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}

func TestClearCart(t *testing.T) {
	sut := New(Options{})
	sut.AddToCart(domain.Product{ID: "a", Price: 1}, 3)

	sut.ClearCart()

	assert.Equal(t, 0, sut.TotalItems())
	assert.Equal(t, 0.0, sut.Subtotal())
	assert.Empty(t, sut.Items())
}

func TestOpenCloseIndependentOfItems(t *testing.T) {
	sut := New(Options{})
	assert.False(t, sut.IsOpen())

	sut.OpenCart()
	assert.True(t, sut.IsOpen())
	sut.CloseCart()
	assert.False(t, sut.IsOpen())

	sut.AddToCart(domain.Product{ID: "a", Price: 1}, 1)
	sut.CloseCart()
	sut.ClearCart()
	assert.False(t, sut.IsOpen())
}

func TestFreeShippingThreshold(t *testing.T) {
	sut := New(Options{FreeShippingThreshold: 50, ShippingRate: 5})
	assert.Equal(t, 0.0, sut.Shipping(), "empty cart ships free")

	sut.AddToCart(domain.Product{ID: "a", Price: 49.99}, 1)
	assert.False(t, sut.QualifiesForFreeShipping())
	assert.Equal(t, 5.0, sut.Shipping())
	assert.Equal(t, 0.01, sut.AmountUntilFreeShipping())
	assert.Equal(t, 54.99, sut.Total())

	sut.AddToCart(domain.Product{ID: "b", Price: 0.01}, 1)
	assert.True(t, sut.QualifiesForFreeShipping())
	assert.Equal(t, 0.0, sut.Shipping())
	assert.Equal(t, 0.0, sut.AmountUntilFreeShipping())
	assert.Equal(t, 50.0, sut.Total())
}

func TestDefaults(t *testing.T) {
	sut := New(Options{})
	assert.Equal(t, DefaultFreeShippingThreshold, sut.FreeShippingThreshold())

	sut.AddToCart(domain.Product{ID: "a", Price: 10}, 1)
	assert.Equal(t, DefaultShippingRate, sut.Shipping())
}

func TestSummary(t *testing.T) {
	sut := New(Options{FreeShippingThreshold: 100, ShippingRate: 7.5})
	sut.AddToCart(domain.Product{ID: "a", Price: 10}, 2)
	sut.AddToCart(domain.Product{ID: "b", Price: 20, OriginalPrice: ptr(15.0)}, 1)

	s := sut.Summary()
	assert.Len(t, s.Items, 2)
	assert.True(t, s.IsOpen)
	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 35.0, s.Subtotal)
	assert.Equal(t, 7.5, s.Shipping)
	assert.Equal(t, 42.5, s.Total)
	assert.Equal(t, 65.0, s.AmountUntilFreeShipping)
}

func TestCrossSell_ExcludesItemsInCart(t *testing.T) {
	sut := New(Options{})
	all := sut.CrossSell()
	require.Len(t, all, len(DefaultCrossSell()))

	sut.AddToCart(all[0], 1)

	remaining := sut.CrossSell()
	assert.Len(t, remaining, len(all)-1)
	for _, p := range remaining {
		assert.NotEqual(t, all[0].ID, p.ID)
	}
}

func TestConcurrentAdds(t *testing.T) {
	sut := New(Options{})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sut.AddToCart(domain.Product{ID: "a", Price: 1}, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, sut.TotalItems())
	assert.Equal(t, 100.0, sut.Subtotal())
}
