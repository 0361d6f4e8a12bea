package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/artstall/marketplace/internal/catalog"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("listing not in cart")
)

// Line is one (listing, qty) pair of a buyer's cart as persisted.
type Line struct {
	ListingID string `json:"listing_id"`
	Qty       int    `json:"qty"`
}

// LineStore persists cart lines. One cart per buyer, created lazily on
// first add.
type LineStore interface {
	Lines(ctx context.Context, buyerID string) ([]Line, error)
	Add(ctx context.Context, buyerID, listingID string, qty int) error
	SetQty(ctx context.Context, buyerID, listingID string, qty int) error
	Remove(ctx context.Context, buyerID, listingID string) error
}

// CatalogReader is the slice of the catalog the aggregator needs.
type CatalogReader interface {
	Get(ctx context.Context, id string) (catalog.Listing, error)
	GetMany(ctx context.Context, ids []string) (map[string]catalog.Listing, error)
}

// ItemView is a cart line joined with live listing data.
type ItemView struct {
	ListingID string          `json:"listing_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency"`
	Qty       int             `json:"qty"`
	Available int             `json:"available"`
	Status    catalog.Status  `json:"status"`
}

type View struct {
	Items    []ItemView      `json:"items"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}
