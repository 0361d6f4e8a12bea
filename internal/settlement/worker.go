// Package settlement records inventory anomalies raised during payment
// settlement so they can be resolved manually.
package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/artstall/marketplace/internal/events"
	kafkax "github.com/artstall/marketplace/internal/kafka"
	"github.com/artstall/marketplace/internal/redisx"
)

type AnomalyStore interface {
	Insert(ctx context.Context, a Anomaly) error
}

type Anomaly struct {
	EventID   string
	OrderID   string
	ListingID string
	Qty       int
	Reason    string
}

type Worker struct {
	Store   AnomalyStore
	Redis   *redis.Client
	Service string
	Log     *zap.Logger
}

// HandleAnomaly is the consumer handler for the anomaly topic. Redis
// dedups redelivered events by event id; the insert itself is also keyed
// by event id, so a missed dedup is still harmless.
func (w *Worker) HandleAnomaly(ctx context.Context, m kafkago.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != events.EventInventoryAnomaly {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, w.Service, env.EventID)
	if seen, _ := redisx.Exists(ctx, w.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[events.InventoryAnomalyPayload](env.Payload)
	if err != nil {
		return err
	}

	a := Anomaly{
		EventID:   env.EventID,
		OrderID:   p.OrderID,
		ListingID: p.ListingID,
		Qty:       p.Qty,
		Reason:    p.Reason,
	}
	if err := w.Store.Insert(ctx, a); err != nil {
		return err
	}
	_ = w.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	w.Log.Info("anomaly recorded",
		zap.String("order_id", a.OrderID),
		zap.String("listing_id", a.ListingID),
		zap.Int("qty", a.Qty),
		zap.String("reason", a.Reason))
	return nil
}
