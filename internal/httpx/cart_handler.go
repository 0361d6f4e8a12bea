package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artstall/marketplace/internal/cart"
)

type CartService interface {
	AddItem(ctx context.Context, buyerID, listingID string, qty int) (cart.View, error)
	RemoveItem(ctx context.Context, buyerID, listingID string) (cart.View, error)
	UpdateQuantity(ctx context.Context, buyerID, listingID string, qty int) (cart.View, error)
	Get(ctx context.Context, buyerID string) (cart.View, error)
}

type CartHandler struct {
	Svc CartService
}

type cartItemReq struct {
	ListingID string `json:"listing_id"`
	Qty       int    `json:"qty"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequirePrincipal)
		r.Post("/cart/add", h.addItem)
		r.Delete("/cart/remove/{listingID}", h.removeItem)
		r.Put("/cart/update", h.updateQuantity)
		r.Get("/cart", h.getCart)
	})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ListingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing listing_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Svc.AddItem(ctx, Principal(r), req.ListingID, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	if listingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing listing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Svc.RemoveItem(ctx, Principal(r), listingID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ListingID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing listing_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.Svc.UpdateQuantity(ctx, Principal(r), req.ListingID, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Svc.Get(ctx, Principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
