package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/fjod/go_cart/storefront-session/internal/session"
	"github.com/go-chi/chi/v5"
)

const maxQuantity = 99

type CartHandler struct {
	maxBodySize int64
}

func NewCartHandler(maxBodySize int64) *CartHandler {
	return &CartHandler{maxBodySize: maxBodySize}
}

type AddItemRequestDTO struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, s.Cart.Summary())
}

// AddItem appends a new line item; a missing quantity means 1
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	var req AddItemRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}

	if strings.TrimSpace(req.Product.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product.id is required")
		return
	}
	if req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	s.Cart.AddToCart(req.Product, req.Quantity)
	respondJSON(w, http.StatusCreated, s.Cart.Summary())
}

// UpdateQuantity sets the quantity of every line with the product id. Quantities
// below 1 leave the cart unchanged.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	itemID := chi.URLParam(r, "id")

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, h.maxBodySize, &req) {
		return
	}
	if req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	s.Cart.UpdateQuantity(itemID, req.Quantity)
	respondJSON(w, http.StatusOK, s.Cart.Summary())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Cart.RemoveItem(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, s.Cart.Summary())
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Cart.ClearCart()
	respondJSON(w, http.StatusOK, s.Cart.Summary())
}

func (h *CartHandler) OpenCart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Cart.OpenCart()
	respondJSON(w, http.StatusOK, s.Cart.Summary())
}

func (h *CartHandler) CloseCart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	s.Cart.CloseCart()
	respondJSON(w, http.StatusOK, s.Cart.Summary())
}

func (h *CartHandler) CrossSell(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, s.Cart.CrossSell())
}

// Checkout is a stub, payment is handled elsewhere
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	log.Printf("checkout requested for session %s (request %s), not available", s.ID, getRequestID(r.Context()))
	respondError(w, http.StatusNotImplemented, "checkout_not_available", "checkout is not available yet")
}
