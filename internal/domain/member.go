package domain

import "time"

type Grade string

const (
	GradeVIP    Grade = "VIP"
	GradeGold   Grade = "GOLD"
	GradeSilver Grade = "SILVER"
	GradeBronze Grade = "BRONZE"
)

// Member is the slice of the member row this core reads and mutates:
// the grade drives pricing, the points balance is debited/credited on
// point-paid orders, and name/phone are snapshotted onto new orders.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Grade  Grade  `json:"grade"`
	Points int64  `json:"points"`
}

type Address struct {
	ID         string `json:"id"`
	MemberID   string `json:"member_id"`
	PostalCode string `json:"postal_code"`
	Street     string `json:"street"`
	Detail     string `json:"detail"`
	IsDefault  bool   `json:"is_default"`
}

// CartLine is a live cart entry joined against the catalog. Subtotal
// already reflects the item's current sale price.
type CartLine struct {
	LineID    string `json:"line_id"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

type StockLevel struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Stock  int    `json:"stock"`
}

type RefundReason string

const (
	RefundReasonChangeOfMind RefundReason = "CHANGE_OF_MIND"
	RefundReasonDefect       RefundReason = "DEFECT"
	RefundReasonWrongItem    RefundReason = "WRONG_ITEM"
	RefundReasonDelayed      RefundReason = "DELAYED"
	RefundReasonEtc          RefundReason = "ETC"
)

func (r RefundReason) Known() bool {
	switch r {
	case RefundReasonChangeOfMind, RefundReasonDefect, RefundReasonWrongItem,
		RefundReasonDelayed, RefundReasonEtc:
		return true
	}
	return false
}

type RefundDisposition string

const (
	RefundPending  RefundDisposition = "PENDING"
	RefundApproved RefundDisposition = "APPROVED"
	RefundRejected RefundDisposition = "REJECTED"
)

// OrderRefund is one append-only refund request. This core only ever
// writes PENDING rows; the disposition and processed fields belong to
// the administrative workflow.
type OrderRefund struct {
	ID           string            `json:"id"`
	OrderID      string            `json:"order_id"`
	OrderNo      string            `json:"order_no,omitempty"`
	ReasonCode   RefundReason      `json:"reason_code"`
	ReasonDetail string            `json:"reason_detail"`
	Disposition  RefundDisposition `json:"disposition"`
	CreatedAt    time.Time         `json:"created_at"`
}
