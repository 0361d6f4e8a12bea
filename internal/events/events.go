package events

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventPaymentCaptured  = "PaymentCaptured"
	EventListingSoldOut   = "ListingSoldOut"
	EventInventoryAnomaly = "InventoryAnomaly"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type LineItem struct {
	ListingID string `json:"listing_id"`
	Qty       int    `json:"qty"`
	UnitPrice string `json:"unit_price"`
	Currency  string `json:"currency"`
}

type OrderCreatedPayload struct {
	OrderID        string     `json:"order_id"`
	BuyerID        string     `json:"buyer_id"`
	SellerID       string     `json:"seller_id"`
	GatewayOrderID string     `json:"gateway_order_id"`
	Lines          []LineItem `json:"lines"`
	Total          string     `json:"total"`
	Currency       string     `json:"currency"`
}

type PaymentCapturedPayload struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Total            string `json:"total"`
	Currency         string `json:"currency"`
}

type ListingSoldOutPayload struct {
	ListingID string `json:"listing_id"`
	OrderID   string `json:"order_id"`
}

// InventoryAnomalyPayload records a settlement that could not decrement
// stock. The order stays paid; the anomaly is for manual resolution.
type InventoryAnomalyPayload struct {
	OrderID   string `json:"order_id"`
	ListingID string `json:"listing_id"`
	Qty       int    `json:"qty"`
	Reason    string `json:"reason"` // e.g. INSUFFICIENT_STOCK, LISTING_GONE
}
