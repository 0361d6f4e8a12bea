package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/artstall/marketplace/internal/orders"
)

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*orders.Order, error)
}

type PaymentHandler struct {
	Verifier PaymentVerifier
}

type verifyReq struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

func (h *PaymentHandler) Register(r chi.Router) {
	// No principal requirement: the caller is the payment gateway's
	// callback, authenticated by the signature itself.
	r.Post("/payment/verify", h.verify)
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Verifier.VerifyPayment(ctx, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
