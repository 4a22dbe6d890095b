package http

import (
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront-session/internal/domain"
	"github.com/fjod/go_cart/storefront-session/internal/session"
	"github.com/go-chi/chi/v5"
)

type WishlistHandler struct {
	maxBodySize int64
}

func NewWishlistHandler(maxBodySize int64) *WishlistHandler {
	return &WishlistHandler{maxBodySize: maxBodySize}
}

type WishlistResponse struct {
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
	Total float64          `json:"total"`
}

type WishlistMutationResponse struct {
	Success    bool             `json:"success"`
	InWishlist bool             `json:"inWishlist"`
	Wishlist   WishlistResponse `json:"wishlist"`
}

type MembershipResponse struct {
	ID         string `json:"id"`
	InWishlist bool   `json:"inWishlist"`
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, wishlistResponse(r, s))
}

func (h *WishlistHandler) Membership(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, MembershipResponse{
		ID:         id,
		InWishlist: s.Wishlist.IsInWishlist(r.Context(), id),
	})
}

func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	success := s.Wishlist.AddToWishlist(r.Context(), product)
	respondJSON(w, http.StatusOK, WishlistMutationResponse{
		Success:    success,
		InWishlist: s.Wishlist.IsInWishlist(r.Context(), product.ID),
		Wishlist:   wishlistResponse(r, s),
	})
}

func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	success := s.Wishlist.RemoveFromWishlist(r.Context(), id)
	respondJSON(w, http.StatusOK, WishlistMutationResponse{
		Success:    success,
		InWishlist: s.Wishlist.IsInWishlist(r.Context(), id),
		Wishlist:   wishlistResponse(r, s),
	})
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	inWishlist := s.Wishlist.ToggleWishlist(r.Context(), product)
	respondJSON(w, http.StatusOK, WishlistMutationResponse{
		Success:    true,
		InWishlist: inWishlist,
		Wishlist:   wishlistResponse(r, s),
	})
}

// MoveToCart hands the entry to the session's cart and drops it from the wishlist
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if !s.Wishlist.MoveToCart(r.Context(), id, s.AddToCart) {
		if s.Wishlist.IsInWishlist(r.Context(), id) {
			respondError(w, http.StatusInternalServerError, "move_failed", "failed to move product to cart")
			return
		}
		respondError(w, http.StatusNotFound, "not_found", "product is not in the wishlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wishlist": wishlistResponse(r, s),
		"cart":     s.Cart.Summary(),
	})
}

func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())

	success := s.Wishlist.ClearWishlist(r.Context())
	respondJSON(w, http.StatusOK, WishlistMutationResponse{
		Success:  success,
		Wishlist: wishlistResponse(r, s),
	})
}

func (h *WishlistHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (domain.Product, bool) {
	var product domain.Product
	if !decodeJSON(w, r, h.maxBodySize, &product) {
		return product, false
	}
	if strings.TrimSpace(product.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "id is required")
		return product, false
	}
	return product, true
}

func wishlistResponse(r *http.Request, s *session.Session) WishlistResponse {
	items := s.Wishlist.Items(r.Context())
	return WishlistResponse{
		Items: items,
		Count: len(items),
		Total: s.Wishlist.Total(r.Context()),
	}
}
