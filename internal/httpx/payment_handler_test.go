package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artstall/marketplace/internal/checkout"
	"github.com/artstall/marketplace/internal/orders"
	"github.com/artstall/marketplace/internal/payment"
)

type verifierMock struct {
	order *orders.Order
	err   error
}

func (m *verifierMock) VerifyPayment(context.Context, string, string, string) (*orders.Order, error) {
	return m.order, m.err
}

func paymentRouter(v PaymentVerifier) *chi.Mux {
	r := chi.NewRouter()
	(&PaymentHandler{Verifier: v}).Register(r)
	return r
}

func verifyBody(oid, pid, sig string) map[string]any {
	return map[string]any{"gateway_order_id": oid, "gateway_payment_id": pid, "signature": sig}
}

func TestVerifyPaymentOK(t *testing.T) {
	o := &orders.Order{
		ID:               "o1",
		BuyerID:          "buyer",
		SellerID:         "s1",
		Total:            decimal.RequireFromString("100"),
		Currency:         "INR",
		GatewayOrderID:   "gw_1",
		GatewayPaymentID: "pay_1",
		Status:           orders.StatusPaid,
	}
	r := paymentRouter(&verifierMock{order: o})

	rec := doJSON(t, r, http.MethodPost, "/payment/verify", "", verifyBody("gw_1", "pay_1", "sig"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paid"`)
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	r := paymentRouter(&verifierMock{})
	rec := doJSON(t, r, http.MethodPost, "/payment/verify", "", verifyBody("gw_1", "", "sig"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPaymentSignatureMismatchIs400(t *testing.T) {
	r := paymentRouter(&verifierMock{err: payment.ErrSignatureMismatch})
	rec := doJSON(t, r, http.MethodPost, "/payment/verify", "", verifyBody("gw_1", "pay_1", "bad"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPaymentUnknownOrderIs404(t *testing.T) {
	r := paymentRouter(&verifierMock{err: orders.ErrNotFound})
	rec := doJSON(t, r, http.MethodPost, "/payment/verify", "", verifyBody("gw_x", "pay_1", "sig"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type checkoutServiceMock struct {
	results []checkout.Result
	err     error
}

func (m *checkoutServiceMock) Checkout(context.Context, string) ([]checkout.Result, error) {
	return m.results, m.err
}

func checkoutRouter(svc CheckoutService) *chi.Mux {
	r := chi.NewRouter()
	(&CheckoutHandler{Svc: svc}).Register(r)
	return r
}

func TestCheckoutStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{checkout.ErrEmptyCart, http.StatusBadRequest},
		{&checkout.StockError{ListingID: "a", Requested: 3, Available: 1}, http.StatusConflict},
		{checkout.ErrNotPurchasable, http.StatusConflict},
		{payment.ErrGatewayUnavailable, http.StatusBadGateway},
	}
	for _, c := range cases {
		r := checkoutRouter(&checkoutServiceMock{err: c.err})
		rec := doJSON(t, r, http.MethodPost, "/cart/checkout", "buyer", nil)
		assert.Equal(t, c.code, rec.Code, "error %v", c.err)
	}
}

func TestCheckoutReturnsTuples(t *testing.T) {
	o := &orders.Order{ID: "o1", SellerID: "s1", Total: decimal.RequireFromString("100"), Currency: "INR", GatewayOrderID: "gw_1", Status: orders.StatusCreated}
	r := checkoutRouter(&checkoutServiceMock{results: []checkout.Result{{
		SellerID:     "s1",
		Order:        o,
		GatewayOrder: payment.GatewayOrder{ID: "gw_1", Amount: 10000, Currency: "INR"},
	}}})

	rec := doJSON(t, r, http.MethodPost, "/cart/checkout", "buyer", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gw_1"`)
	assert.Contains(t, rec.Body.String(), `"s1"`)
}
