package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGatewayUnavailable wraps any failure talking to the payment gateway.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayOrder is the gateway-side order a buyer completes payment against.
// Amount is in the currency's minor unit (paise, cents).
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates settlement orders at the external payment processor. The
// buyer pays out of band; the processor calls back with order id, payment
// id and signature.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (GatewayOrder, error)
}

// RestGateway talks to a Razorpay-compatible REST API with basic auth.
type RestGateway struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Client    *http.Client
}

func NewRestGateway(baseURL, keyID, keySecret string) *RestGateway {
	return &RestGateway{
		BaseURL:   baseURL,
		KeyID:     keyID,
		KeySecret: keySecret,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *RestGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (GatewayOrder, error) {
	body, _ := json.Marshal(map[string]any{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return GatewayOrder{}, err
	}
	req.SetBasicAuth(g.KeyID, g.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("create gateway order: %v: %w", err, ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return GatewayOrder{}, fmt.Errorf("create gateway order: status %d: %w", resp.StatusCode, ErrGatewayUnavailable)
	}
	var out GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return GatewayOrder{}, fmt.Errorf("decode gateway order: %v: %w", err, ErrGatewayUnavailable)
	}
	return out, nil
}
