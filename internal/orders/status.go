package orders

type Status string

const (
	StatusCreated        Status = "created"
	StatusPending        Status = "pending"
	StatusPaid           Status = "paid"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusCreated:        {StatusPending: true, StatusPaid: true, StatusCancelled: true, StatusFailed: true},
	StatusPending:        {StatusPaid: true, StatusCancelled: true, StatusFailed: true},
	StatusPaid:           {StatusShipped: true},
	StatusShipped:        {StatusOutForDelivery: true},
	StatusOutForDelivery: {StatusDelivered: true},
	StatusDelivered:      {},
	StatusFailed:         {},
	StatusCancelled:      {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// sellerNext is the subset of target statuses a seller may request over
// the API: fulfilment after payment, cancellation before it. paid,
// pending and failed are reserved for the payment path.
var sellerNext = map[Status]bool{
	StatusShipped:        true,
	StatusOutForDelivery: true,
	StatusDelivered:      true,
	StatusCancelled:      true,
}

func CanFulfil(to Status) bool {
	return sellerNext[to]
}
