package redisx

import "time"

const (
	// Verified payment shortcut: verified:payment:{gateway_order_id} -> order_id.
	// Postgres stays the source of truth; this only short-circuits repeated
	// gateway callbacks.
	KeyVerifiedPayment = "verified:payment:%s"

	// Cache of order status: order_status:{order_id} -> StatusEntry JSON
	KeyOrderStatus = "order_status:%s"

	// Single-flight checkout guard: checkout:inflight:{buyer_id}. Taken
	// with SETNX before orders are cut, released when the call returns;
	// the TTL reclaims the key if the release is lost.
	KeyCheckoutInflight = "checkout:inflight:%s"

	// Dedup of consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLVerified         = 48 * time.Hour
	TTLStatusCache      = 5 * time.Minute
	TTLCheckoutInflight = 30 * time.Second
	TTLDedup            = 48 * time.Hour
)

// StatusEntry is the value cached under KeyOrderStatus. Owner ids ride
// along so status reads can authorize straight from cache.
type StatusEntry struct {
	Status   string `json:"status"`
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
}
