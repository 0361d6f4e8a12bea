package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/artstall/marketplace/internal/events"
	kafkax "github.com/artstall/marketplace/internal/kafka"
	"github.com/artstall/marketplace/internal/orders"
	"github.com/artstall/marketplace/internal/redisx"
)

// ErrSignatureMismatch means the callback signature does not match the
// HMAC computed with the shared secret. Surfaced as a client error.
var ErrSignatureMismatch = errors.New("payment signature mismatch")

// OrderStore is the slice of the order repository the verifier needs.
type OrderStore interface {
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*orders.Order, error)
	MarkPaid(ctx context.Context, orderID, gatewayPaymentID, gatewaySignature string) (first bool, err error)
}

// Settler decrements stock for a paid order. Invoked exactly once per
// order, on the first successful verification.
type Settler interface {
	Settle(ctx context.Context, o *orders.Order)
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Verifier validates gateway payment callbacks and drives the paid
// transition. Settlement (inventory decrement) happens here as an explicit
// ordered step, never as a persistence hook.
type Verifier struct {
	Secret   string
	Orders   OrderStore
	Settler  Settler
	Redis    *redis.Client
	Producer publisher
	Service  string
	Log      *zap.Logger
}

// Sign computes the expected callback signature for a gateway order and
// payment id pair.
func Sign(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment checks the signature, marks the order paid and settles
// inventory. Repeated callbacks with the same valid payload are no-ops
// beyond re-reading the order.
func (v *Verifier) VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*orders.Order, error) {
	expected := Sign(v.Secret, gatewayOrderID, gatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, fmt.Errorf("gateway order %s: %w", gatewayOrderID, ErrSignatureMismatch)
	}

	// Fast path for retried callbacks. Postgres stays the source of truth:
	// even without this key, MarkPaid below fires at most once.
	dkey := fmt.Sprintf(redisx.KeyVerifiedPayment, gatewayOrderID)
	if v.Redis != nil {
		if seen, _ := redisx.Exists(ctx, v.Redis, dkey); seen {
			return v.Orders.GetByGatewayOrderID(ctx, gatewayOrderID)
		}
	}

	o, err := v.Orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	first, err := v.Orders.MarkPaid(ctx, o.ID, gatewayPaymentID, signature)
	if err != nil {
		return nil, err
	}

	if v.Redis != nil {
		_ = v.Redis.Set(ctx, dkey, o.ID, redisx.TTLVerified).Err()
	}

	if !first {
		// Already paid earlier (possibly shipped by now); report the
		// current state and do not settle again.
		return v.Orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	}

	o.Status = orders.StatusPaid
	o.GatewayPaymentID = gatewayPaymentID
	if v.Redis != nil {
		statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
		b, _ := json.Marshal(redisx.StatusEntry{
			Status:   string(o.Status),
			BuyerID:  o.BuyerID,
			SellerID: o.SellerID,
		})
		_ = v.Redis.Set(ctx, statusKey, b, redisx.TTLStatusCache).Err()
	}

	v.Settler.Settle(ctx, o)
	v.publishCaptured(o)
	return o, nil
}

func (v *Verifier) publishCaptured(o *orders.Order) {
	if v.Producer == nil {
		return
	}
	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventPaymentCaptured,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      v.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(events.PaymentCapturedPayload{
			OrderID:          o.ID,
			GatewayOrderID:   o.GatewayOrderID,
			GatewayPaymentID: o.GatewayPaymentID,
			Total:            o.Total.String(),
			Currency:         o.Currency,
		}),
	}
	v.Producer.Publish(events.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventPaymentCaptured)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
