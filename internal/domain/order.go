package domain

import "time"

type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "CREATED"
	OrderStatusPreparing       OrderStatus = "PREPARING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRefundRequested OrderStatus = "REFUND_REQUESTED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
)

func (s OrderStatus) Known() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPreparing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCanceled,
		OrderStatusRefundRequested, OrderStatusRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentPoints       PaymentMethod = "POINT"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentTossPay      PaymentMethod = "TOSSPAY"
)

func (p PaymentMethod) Known() bool {
	switch p {
	case PaymentPoints, PaymentBankTransfer, PaymentTossPay:
		return true
	}
	return false
}

// Deferred reports whether the fund transfer settles asynchronously
// outside this core. Points settle immediately at creation.
func (p PaymentMethod) Deferred() bool {
	return p == PaymentBankTransfer || p == PaymentTossPay
}

// OrderLine is an immutable snapshot of one cart line at order time.
// UnitPrice is the sale price in effect when the order was placed.
type OrderLine struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// Order is the priced, immutable result of a checkout. All money fields
// are minor currency units and satisfy
// PayableAmount == ProductsTotal - DiscountTotal + ShippingFee.
type Order struct {
	ID            string        `json:"id"`
	OrderNo       string        `json:"order_no"`
	MemberID      string        `json:"member_id"`
	AddressID     string        `json:"address_id"`
	OrderedAt     time.Time     `json:"ordered_at"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ReceiverName  string        `json:"receiver_name"`
	ReceiverPhone string        `json:"receiver_phone"`
	Status        OrderStatus   `json:"status"`
	ProductsTotal int64         `json:"products_total"`
	DiscountTotal int64         `json:"discount_total"`
	ShippingFee   int64         `json:"shipping_fee"`
	PayableAmount int64         `json:"payable_amount"`
	Lines         []OrderLine   `json:"lines"`
}
