package events

const (
	TopicOrderCreated     = "order.created"
	TopicPaymentCaptured  = "order.payment.captured"
	TopicListingSoldOut   = "listing.soldout"
	TopicInventoryAnomaly = "inventory.anomaly"
)

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
