package domain

import "time"

const (
	TopicOrderCreated    = "order.created"
	TopicOrderCanceled   = "order.canceled"
	TopicRefundRequested = "order.refund_requested"
)

type OrderCreatedEvent struct {
	OrderID       string        `json:"order_id"`
	OrderNo       string        `json:"order_no"`
	MemberID      string        `json:"member_id"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PayableAmount int64         `json:"payable_amount"`
	Lines         []OrderLine   `json:"lines"`
	Timestamp     time.Time     `json:"timestamp"`
}

type OrderCanceledEvent struct {
	OrderID        string    `json:"order_id"`
	OrderNo        string    `json:"order_no"`
	MemberID       string    `json:"member_id"`
	PointsRefunded int64     `json:"points_refunded"`
	Timestamp      time.Time `json:"timestamp"`
}

type RefundRequestedEvent struct {
	OrderID    string       `json:"order_id"`
	OrderNo    string       `json:"order_no"`
	MemberID   string       `json:"member_id"`
	ReasonCode RefundReason `json:"reason_code"`
	Timestamp  time.Time    `json:"timestamp"`
}
