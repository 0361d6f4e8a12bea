package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/artstall/marketplace/internal/cart"
	"github.com/artstall/marketplace/internal/catalog"
	"github.com/artstall/marketplace/internal/events"
	kafkax "github.com/artstall/marketplace/internal/kafka"
	"github.com/artstall/marketplace/internal/money"
	"github.com/artstall/marketplace/internal/orders"
	"github.com/artstall/marketplace/internal/payment"
	"github.com/artstall/marketplace/internal/redisx"
)

var (
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotPurchasable means a carted listing changed status between add
	// and checkout. Hard failure, never silently dropped.
	ErrNotPurchasable = errors.New("listing not purchasable")

	// ErrCheckoutInFlight means another checkout for the same buyer holds
	// the single-flight guard. Retry after it returns.
	ErrCheckoutInFlight = errors.New("checkout already in flight")

	// ErrCurrencyMismatch means a seller group carries lines priced in
	// different currencies; their subtotals cannot be summed.
	ErrCurrencyMismatch = errors.New("mixed currencies in order")
)

// StockError names the offending listing when checkout validation fails.
type StockError struct {
	ListingID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("listing %s: requested %d, available %d", e.ListingID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == catalog.ErrInsufficientStock }

// OrderStore persists all orders of a checkout and clears the cart in one
// transaction.
type OrderStore interface {
	CreateBatch(ctx context.Context, buyerID string, os []*orders.Order) error
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Result is one (seller, order, gateway order) tuple. The frontend drives
// one payment flow per tuple: each seller settles independently.
type Result struct {
	SellerID     string               `json:"seller_id"`
	Order        *orders.Order        `json:"order"`
	GatewayOrder payment.GatewayOrder `json:"gateway_order"`
}

// Service cuts per-seller orders from the buyer's cart. Stock validation
// here is a best-effort pre-check; the authoritative check is the atomic
// decrement at settlement.
type Service struct {
	Carts    cart.LineStore
	Catalog  cart.CatalogReader
	Orders   OrderStore
	Gateway  payment.Gateway
	Producer publisher
	Redis    *redis.Client
	Service  string
	Log      *zap.Logger
}

// Checkout consumes the buyer's cart all-or-nothing: any invalid line
// aborts the whole call with zero orders created and the cart untouched.
func (s *Service) Checkout(ctx context.Context, buyerID string) ([]Result, error) {
	// Single-flight per buyer: a retried or concurrent call must not cut
	// a second set of payable orders from the same cart. Postgres backs
	// this up; CreateBatch refuses a cart another checkout emptied.
	if s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyCheckoutInflight, buyerID)
		ok, err := s.Redis.SetNX(ctx, key, 1, redisx.TTLCheckoutInflight).Result()
		if err == nil && !ok {
			return nil, fmt.Errorf("buyer %s: %w", buyerID, ErrCheckoutInFlight)
		}
		if err == nil {
			defer func() { _ = s.Redis.Del(context.WithoutCancel(ctx), key).Err() }()
		}
	}

	lines, err := s.Carts.Lines(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-fetch every listing fresh; carts can be arbitrarily stale.
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ListingID)
	}
	listings, err := s.Catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	bySeller := map[string][]cart.Line{}
	for _, line := range lines {
		l, ok := listings[line.ListingID]
		if !ok {
			return nil, fmt.Errorf("listing %s: %w", line.ListingID, catalog.ErrNotFound)
		}
		if !l.Purchasable() {
			return nil, fmt.Errorf("listing %s is %s: %w", l.ID, l.Status, ErrNotPurchasable)
		}
		if l.Quantity < line.Qty {
			return nil, &StockError{ListingID: l.ID, Requested: line.Qty, Available: l.Quantity}
		}
		bySeller[l.SellerID] = append(bySeller[l.SellerID], line)
	}

	sellers := make([]string, 0, len(bySeller))
	for sid := range bySeller {
		sellers = append(sellers, sid)
	}
	sort.Strings(sellers)

	// Gateway orders first; they are inert until paid, so a later abort
	// leaves nothing to compensate. Order rows and the cart wipe commit
	// together afterwards.
	results := make([]Result, 0, len(sellers))
	batch := make([]*orders.Order, 0, len(sellers))
	for _, sellerID := range sellers {
		group := bySeller[sellerID]

		o := &orders.Order{
			ID:       uuid.NewString(),
			BuyerID:  buyerID,
			SellerID: sellerID,
			Total:    decimal.Zero,
			Status:   orders.StatusCreated,
		}
		for _, line := range group {
			l := listings[line.ListingID]
			o.Lines = append(o.Lines, orders.Line{
				ListingID: l.ID,
				Title:     l.Title,
				Qty:       line.Qty,
				UnitPrice: l.Price,
				Currency:  l.Currency,
			})
			o.Total = o.Total.Add(l.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
			if o.Currency == "" {
				o.Currency = l.Currency
			} else if l.Currency != o.Currency {
				return nil, fmt.Errorf("listing %s priced in %s, group is %s: %w",
					l.ID, l.Currency, o.Currency, ErrCurrencyMismatch)
			}
		}

		minor, err := money.MinorUnits(o.Total, o.Currency)
		if err != nil {
			return nil, err
		}
		gw, err := s.Gateway.CreateOrder(ctx, minor, o.Currency, o.ID)
		if err != nil {
			return nil, fmt.Errorf("seller %s: %w", sellerID, err)
		}
		o.GatewayOrderID = gw.ID

		batch = append(batch, o)
		results = append(results, Result{SellerID: sellerID, Order: o, GatewayOrder: gw})
	}

	if err := s.Orders.CreateBatch(ctx, buyerID, batch); err != nil {
		return nil, err
	}

	for _, o := range batch {
		s.publishCreated(o)
	}
	return results, nil
}

func (s *Service) publishCreated(o *orders.Order) {
	if s.Producer == nil {
		return
	}
	lines := make([]events.LineItem, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, events.LineItem{
			ListingID: l.ListingID,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice.String(),
			Currency:  l.Currency,
		})
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(events.OrderCreatedPayload{
			OrderID:        o.ID,
			BuyerID:        o.BuyerID,
			SellerID:       o.SellerID,
			GatewayOrderID: o.GatewayOrderID,
			Lines:          lines,
			Total:          o.Total.String(),
			Currency:       o.Currency,
		}),
	}
	s.Producer.Publish(events.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
