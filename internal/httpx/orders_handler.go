package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/artstall/marketplace/internal/orders"
	"github.com/artstall/marketplace/internal/redisx"
)

type OrderStore interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to orders.Status) error
}

type OrdersHandler struct {
	Store OrderStore
	Redis *redis.Client
}

type statusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequirePrincipal)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/status", h.getStatus)
		r.Patch("/orders/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	uid := Principal(r)
	if uid != o.BuyerID && uid != o.SellerID {
		writeError(w, ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	uid := Principal(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB fallback; owner ids ride in the cached entry so
	// the fast path still refuses strangers
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if raw, err := h.Redis.Get(ctx, key).Result(); err == nil && raw != "" {
			var e redisx.StatusEntry
			if json.Unmarshal([]byte(raw), &e) == nil && e.Status != "" {
				if uid != e.BuyerID && uid != e.SellerID {
					writeError(w, ErrForbidden)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{"status": e.Status})
				return
			}
		}
	}

	o, err := h.Store.Get(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if uid != o.BuyerID && uid != o.SellerID {
		writeError(w, ErrForbidden)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Status)})
}

// updateStatus is the seller's fulfilment path: paid -> shipped ->
// out_for_delivery -> delivered, plus cancel while unpaid. The paid
// transition itself belongs to payment verification and is never
// reachable here.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if Principal(r) != o.SellerID {
		writeError(w, ErrForbidden)
		return
	}
	if !orders.CanFulfil(req.Status) {
		writeError(w, ErrForbidden)
		return
	}

	if err := h.Store.UpdateStatus(ctx, o.ID, o.Status, req.Status); err != nil {
		writeError(w, err)
		return
	}
	o.Status = req.Status

	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	b, _ := json.Marshal(redisx.StatusEntry{
		Status:   string(o.Status),
		BuyerID:  o.BuyerID,
		SellerID: o.SellerID,
	})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
