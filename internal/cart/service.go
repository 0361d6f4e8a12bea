package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/artstall/marketplace/internal/catalog"
)

// Service is the cart aggregator: it owns the buyer's line list and
// computes totals against live catalog prices. No payment or inventory
// action happens here.
type Service struct {
	Store   LineStore
	Catalog CatalogReader
}

// AddItem puts qty of listingID into the buyer's cart. Non-positive or
// missing qty defaults to 1, matching the permissive storefront UX. The
// listing must exist and be purchasable.
func (s *Service) AddItem(ctx context.Context, buyerID, listingID string, qty int) (View, error) {
	if qty < 1 {
		qty = 1
	}
	l, err := s.Catalog.Get(ctx, listingID)
	if err != nil {
		return View{}, err
	}
	if !l.Purchasable() {
		return View{}, fmt.Errorf("listing %s is %s: %w", listingID, l.Status, catalog.ErrNotFound)
	}
	if err := s.Store.Add(ctx, buyerID, listingID, qty); err != nil {
		return View{}, err
	}
	return s.Get(ctx, buyerID)
}

func (s *Service) RemoveItem(ctx context.Context, buyerID, listingID string) (View, error) {
	if err := s.Store.Remove(ctx, buyerID, listingID); err != nil {
		return View{}, err
	}
	return s.Get(ctx, buyerID)
}

func (s *Service) UpdateQuantity(ctx context.Context, buyerID, listingID string, qty int) (View, error) {
	if qty < 1 {
		return View{}, ErrInvalidQuantity
	}
	if err := s.Store.SetQty(ctx, buyerID, listingID, qty); err != nil {
		return View{}, err
	}
	return s.Get(ctx, buyerID)
}

// Get returns the cart joined with live listing data. An absent cart is an
// empty cart with total 0, never an error. Lines whose listing has since
// been deleted are omitted from the view; checkout still sees and rejects
// them.
func (s *Service) Get(ctx context.Context, buyerID string) (View, error) {
	lines, err := s.Store.Lines(ctx, buyerID)
	if err != nil {
		return View{}, err
	}
	v := View{Items: []ItemView{}, Total: decimal.Zero}
	if len(lines) == 0 {
		return v, nil
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ListingID)
	}
	listings, err := s.Catalog.GetMany(ctx, ids)
	if err != nil {
		return View{}, err
	}

	for _, line := range lines {
		l, ok := listings[line.ListingID]
		if !ok {
			continue
		}
		v.Items = append(v.Items, ItemView{
			ListingID: l.ID,
			Title:     l.Title,
			UnitPrice: l.Price,
			Currency:  l.Currency,
			Qty:       line.Qty,
			Available: l.Quantity,
			Status:    l.Status,
		})
		v.Total = v.Total.Add(l.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
		if v.Currency == "" {
			v.Currency = l.Currency
		}
	}
	return v, nil
}
