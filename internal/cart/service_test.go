package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artstall/marketplace/internal/catalog"
)

type mockStore struct {
	lines map[string][]Line // buyer -> lines
}

func newMockStore() *mockStore { return &mockStore{lines: map[string][]Line{}} }

func (m *mockStore) Lines(_ context.Context, buyerID string) ([]Line, error) {
	return m.lines[buyerID], nil
}

func (m *mockStore) Add(_ context.Context, buyerID, listingID string, qty int) error {
	for i, l := range m.lines[buyerID] {
		if l.ListingID == listingID {
			m.lines[buyerID][i].Qty += qty
			return nil
		}
	}
	m.lines[buyerID] = append(m.lines[buyerID], Line{ListingID: listingID, Qty: qty})
	return nil
}

func (m *mockStore) SetQty(_ context.Context, buyerID, listingID string, qty int) error {
	for i, l := range m.lines[buyerID] {
		if l.ListingID == listingID {
			m.lines[buyerID][i].Qty = qty
			return nil
		}
	}
	return fmt.Errorf("listing %s: %w", listingID, ErrLineNotFound)
}

func (m *mockStore) Remove(_ context.Context, buyerID, listingID string) error {
	for i, l := range m.lines[buyerID] {
		if l.ListingID == listingID {
			m.lines[buyerID] = append(m.lines[buyerID][:i], m.lines[buyerID][i+1:]...)
			return nil
		}
	}
	return nil
}

type mockCatalog struct {
	listings map[string]catalog.Listing
}

func (m *mockCatalog) Get(_ context.Context, id string) (catalog.Listing, error) {
	l, ok := m.listings[id]
	if !ok {
		return catalog.Listing{}, catalog.ErrNotFound
	}
	return l, nil
}

func (m *mockCatalog) GetMany(_ context.Context, ids []string) (map[string]catalog.Listing, error) {
	out := map[string]catalog.Listing{}
	for _, id := range ids {
		if l, ok := m.listings[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

func listing(id, seller, title, price string, qty int, status catalog.Status) catalog.Listing {
	return catalog.Listing{
		ID:       id,
		SellerID: seller,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Currency: "INR",
		Quantity: qty,
		Status:   status,
	}
}

func newService(listings ...catalog.Listing) (*Service, *mockStore) {
	cat := &mockCatalog{listings: map[string]catalog.Listing{}}
	for _, l := range listings {
		cat.listings[l.ID] = l
	}
	store := newMockStore()
	return &Service{Store: store, Catalog: cat}, store
}

func TestAddItemCoalescesRepeatAdds(t *testing.T) {
	svc, store := newService(listing("a", "s1", "Sunset", "100", 10, catalog.StatusPublished))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "buyer", "a", 2)
	require.NoError(t, err)
	v, err := svc.AddItem(ctx, "buyer", "a", 3)
	require.NoError(t, err)

	require.Len(t, v.Items, 1)
	assert.Equal(t, 5, v.Items[0].Qty)
	assert.Len(t, store.lines["buyer"], 1)
	assert.True(t, v.Total.Equal(decimal.RequireFromString("500")))
}

func TestAddItemDefaultsInvalidQtyToOne(t *testing.T) {
	svc, _ := newService(listing("a", "s1", "Sunset", "100", 10, catalog.StatusPublished))

	v, err := svc.AddItem(context.Background(), "buyer", "a", 0)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 1, v.Items[0].Qty)

	v, err = svc.AddItem(context.Background(), "buyer", "a", -7)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Items[0].Qty)
}

func TestAddItemUnknownOrUnpurchasableListing(t *testing.T) {
	svc, _ := newService(
		listing("draft", "s1", "WIP", "10", 5, catalog.StatusDraft),
		listing("gone", "s1", "Removed", "10", 5, catalog.StatusRemoved),
	)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "buyer", "nope", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.AddItem(ctx, "buyer", "draft", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = svc.AddItem(ctx, "buyer", "gone", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	svc, _ := newService(listing("a", "s1", "Sunset", "100", 10, catalog.StatusPublished))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "buyer", "a", 1)
	require.NoError(t, err)

	v, err := svc.RemoveItem(ctx, "buyer", "a")
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	// removing again is not an error
	v, err = svc.RemoveItem(ctx, "buyer", "a")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.True(t, v.Total.IsZero())
}

func TestUpdateQuantity(t *testing.T) {
	svc, _ := newService(listing("a", "s1", "Sunset", "100", 10, catalog.StatusPublished))
	ctx := context.Background()

	_, err := svc.UpdateQuantity(ctx, "buyer", "a", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.UpdateQuantity(ctx, "buyer", "a", 2)
	assert.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.AddItem(ctx, "buyer", "a", 1)
	require.NoError(t, err)
	v, err := svc.UpdateQuantity(ctx, "buyer", "a", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Items[0].Qty)
	assert.True(t, v.Total.Equal(decimal.RequireFromString("400")))
}

func TestGetEmptyCartIsNotAnError(t *testing.T) {
	svc, _ := newService()

	v, err := svc.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.True(t, v.Total.IsZero())
}

func TestGetTotalTracksLivePrices(t *testing.T) {
	l := listing("a", "s1", "Sunset", "100", 10, catalog.StatusPublished)
	cat := &mockCatalog{listings: map[string]catalog.Listing{"a": l}}
	store := newMockStore()
	svc := &Service{Store: store, Catalog: cat}
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "buyer", "a", 2)
	require.NoError(t, err)

	// seller reprices after the add; the cart total follows the live price
	l.Price = decimal.RequireFromString("150")
	cat.listings["a"] = l

	v, err := svc.Get(ctx, "buyer")
	require.NoError(t, err)
	assert.True(t, v.Total.Equal(decimal.RequireFromString("300")), "got %s", v.Total)
}
