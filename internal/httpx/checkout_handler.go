package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artstall/marketplace/internal/checkout"
)

type CheckoutService interface {
	Checkout(ctx context.Context, buyerID string) ([]checkout.Result, error)
}

type CheckoutHandler struct {
	Svc CheckoutService
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequirePrincipal)
		r.Post("/cart/checkout", h.checkout)
	})
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	// Checkout talks to the external gateway once per seller group.
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Svc.Checkout(ctx, Principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, results)
}
