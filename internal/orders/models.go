package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrConflict means the order is not in a status the requested
	// transition allows.
	ErrConflict = errors.New("conflicting order status")
)

// Line snapshots a listing at purchase time. Title and unit price are
// copies: later edits to the listing never change a historical order.
type Line struct {
	ListingID string          `json:"listing_id"`
	Title     string          `json:"title"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
}

// Order is one (buyer, seller) group cut from a single checkout. Total is
// fixed at creation time and never recomputed.
type Order struct {
	ID               string          `json:"id"`
	BuyerID          string          `json:"buyer_id"`
	SellerID         string          `json:"seller_id"`
	Lines            []Line          `json:"lines"`
	Total            decimal.Decimal `json:"total"`
	Currency         string          `json:"currency"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
