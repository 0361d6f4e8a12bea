package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("listing not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusPublished  Status = "published"
	StatusRemoved    Status = "removed"
	StatusOutOfStock Status = "out_of_stock"
)

type Listing struct {
	ID        string          `json:"id"`
	SellerID  string          `json:"seller_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Quantity  int             `json:"quantity"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Purchasable reports whether the listing may be added to carts and ordered.
func (l Listing) Purchasable() bool { return l.Status == StatusPublished }
