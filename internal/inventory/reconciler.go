package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/artstall/marketplace/internal/catalog"
	"github.com/artstall/marketplace/internal/events"
	kafkax "github.com/artstall/marketplace/internal/kafka"
	"github.com/artstall/marketplace/internal/orders"
)

// CatalogStore is the conditional-decrement slice of the catalog repo.
type CatalogStore interface {
	DecrementStock(ctx context.Context, id string, qty int) (remaining int, soldOut bool, err error)
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Anomaly is a line whose stock could not be decremented after payment.
// The order stays paid; money finality beats stock precision.
type Anomaly struct {
	OrderID   string
	ListingID string
	Qty       int
	Reason    string
}

// Reconciler decrements listing stock for the lines of a paid order. Each
// decrement is a single atomic conditional update at the storage layer, so
// concurrent settlements cannot oversell.
type Reconciler struct {
	Catalog         CatalogStore
	SoldOutProducer publisher
	AnomalyProducer publisher
	Service         string
	Log             *zap.Logger
}

// Settle runs once per order, on the first paid transition. Failures are
// logged and published as anomalies, never propagated: the payment already
// happened.
func (r *Reconciler) Settle(ctx context.Context, o *orders.Order) {
	for _, line := range o.Lines {
		_, soldOut, err := r.Catalog.DecrementStock(ctx, line.ListingID, line.Qty)
		if err != nil {
			reason := "DECREMENT_FAILED"
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				reason = "LISTING_GONE"
			case errors.Is(err, catalog.ErrInsufficientStock):
				reason = "INSUFFICIENT_STOCK"
			}
			r.Log.Warn("settlement anomaly",
				zap.String("order_id", o.ID),
				zap.String("listing_id", line.ListingID),
				zap.Int("qty", line.Qty),
				zap.String("reason", reason),
				zap.Error(err))
			r.publishAnomaly(Anomaly{OrderID: o.ID, ListingID: line.ListingID, Qty: line.Qty, Reason: reason})
			continue
		}
		if soldOut {
			r.publishSoldOut(o.ID, line.ListingID)
		}
	}
}

func (r *Reconciler) publishSoldOut(orderID, listingID string) {
	if r.SoldOutProducer == nil {
		return
	}
	ev := envelope(events.EventListingSoldOut, r.Service, orderID,
		events.ListingSoldOutPayload{ListingID: listingID, OrderID: orderID})
	r.SoldOutProducer.Publish(events.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventListingSoldOut)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (r *Reconciler) publishAnomaly(a Anomaly) {
	if r.AnomalyProducer == nil {
		return
	}
	ev := envelope(events.EventInventoryAnomaly, r.Service, a.OrderID,
		events.InventoryAnomalyPayload{OrderID: a.OrderID, ListingID: a.ListingID, Qty: a.Qty, Reason: a.Reason})
	r.AnomalyProducer.Publish(events.PartitionKey(a.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventInventoryAnomaly)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func envelope(eventType, producer, orderID string, payload any) events.Envelope {
	return events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
}
