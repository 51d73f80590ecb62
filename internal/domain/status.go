package domain

// transitions is the single source of truth for order status changes.
// Every service method consults this table instead of re-deriving the
// rules at each call site.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:   {OrderStatusPreparing, OrderStatusCanceled},
	OrderStatusPreparing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusCompleted, OrderStatusRefundRequested},
	OrderStatusCompleted: {OrderStatusRefundRequested},
	// Administrative disposition: approve to REFUNDED or reject back to
	// the state the request came from.
	OrderStatusRefundRequested: {OrderStatusRefunded, OrderStatusDelivered, OrderStatusCompleted},
	OrderStatusCanceled:        {},
	OrderStatusRefunded:        {},
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal states never transition again.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCanceled || s == OrderStatusRefunded
}

// Cancelable states accept a member-initiated cancel.
func (s OrderStatus) Cancelable() bool {
	return s == OrderStatusCreated || s == OrderStatusPreparing
}

// Refundable states accept a member-initiated refund request.
func (s OrderStatus) Refundable() bool {
	return s == OrderStatusDelivered || s == OrderStatusCompleted
}
