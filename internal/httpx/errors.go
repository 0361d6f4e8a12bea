package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/artstall/marketplace/internal/cart"
	"github.com/artstall/marketplace/internal/catalog"
	"github.com/artstall/marketplace/internal/checkout"
	"github.com/artstall/marketplace/internal/orders"
	"github.com/artstall/marketplace/internal/payment"
)

// ErrForbidden means the principal is acting on another user's resource.
var ErrForbidden = errors.New("forbidden")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the HTTP taxonomy. Internal detail
// never leaks: unrecognized errors become a bare 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrCurrencyMismatch),
		errors.Is(err, payment.ErrSignatureMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, checkout.ErrNotPurchasable),
		errors.Is(err, checkout.ErrCheckoutInFlight),
		errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, payment.ErrGatewayUnavailable):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
