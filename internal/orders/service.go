package orders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mealkitshop/order-core/internal/cart"
	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/members"
	"github.com/mealkitshop/order-core/internal/postgres"
	"github.com/mealkitshop/order-core/internal/pricing"
	"github.com/mealkitshop/order-core/internal/refunds"
	"github.com/mealkitshop/order-core/internal/stock"
)

// EventPublisher is satisfied by messaging.Producer. Publishers may be
// nil; events are best-effort and never fail a committed order.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Publishers struct {
	OrderCreated    EventPublisher
	OrderCanceled   EventPublisher
	RefundRequested EventPublisher
}

// Service drives the order lifecycle. Every mutating operation runs as
// one database transaction: stock decrements, point movements, the
// order row and cart cleanup commit together or not at all.
type Service struct {
	db      *sql.DB
	orders  *Repository
	refunds *refunds.Repository
	carts   *cart.Repository
	members *members.Repository
	stock   *stock.Ledger
	pricing pricing.Config
	pubs    Publishers
	logger  *slog.Logger
	now     func() time.Time
	orderNo func(time.Time) string
}

func NewService(db *sql.DB, cfg pricing.Config, pubs Publishers, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		orders:  NewRepository(db),
		refunds: refunds.NewRepository(db),
		carts:   cart.NewRepository(db),
		members: members.NewRepository(db),
		stock:   stock.NewLedger(db),
		pricing: cfg,
		pubs:    pubs,
		logger:  logger,
		now:     time.Now,
		orderNo: newOrderNo,
	}
}

type CreateOrderInput struct {
	MemberID      string
	CartLineIDs   []string // empty means the whole cart
	AddressID     string   // empty means the member's default address
	PaymentMethod domain.PaymentMethod
}

// CreateOrder converts the member's (selected) cart lines into a priced
// order. An order-number collision is retried once with a fresh number;
// every business failure aborts without any visible stock or point
// mutation.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if !in.PaymentMethod.Known() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPayment, in.PaymentMethod)
	}

	order, err := s.createOnce(ctx, in)
	if postgres.IsUniqueViolation(err, "orders_order_no_key") {
		s.logger.Warn("order number collision, retrying", "member_id", in.MemberID)
		order, err = s.createOnce(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, s.pubs.OrderCreated, order.ID, domain.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		MemberID:      order.MemberID,
		PaymentMethod: order.PaymentMethod,
		PayableAmount: order.PayableAmount,
		Lines:         order.Lines,
		Timestamp:     order.OrderedAt,
	})

	s.logger.Info("order created",
		"order_id", order.ID, "order_no", order.OrderNo, "member_id", order.MemberID,
		"payment_method", order.PaymentMethod, "payable_amount", order.PayableAmount,
		"status", order.Status)
	return order, nil
}

func (s *Service) createOnce(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	membersTx := s.members.WithTx(tx)
	cartsTx := s.carts.WithTx(tx)
	stockTx := s.stock.WithTx(tx)

	member, err := membersTx.Get(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}

	cartLines, err := cartsTx.LinesFor(ctx, in.MemberID, in.CartLineIDs)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	address, err := s.resolveAddress(ctx, membersTx, in.MemberID, in.AddressID)
	if err != nil {
		return nil, err
	}

	orderLines := make([]domain.OrderLine, 0, len(cartLines))
	consumed := make([]string, 0, len(cartLines))
	for _, cl := range cartLines {
		orderLines = append(orderLines, domain.OrderLine{
			ItemID:    cl.ItemID,
			ItemName:  cl.ItemName,
			Quantity:  cl.Quantity,
			UnitPrice: cl.UnitPrice,
			Subtotal:  cl.Subtotal,
		})
		consumed = append(consumed, cl.LineID)
	}

	quote := pricing.Calculate(s.pricing, orderLines, member.Grade, address.PostalCode)

	for _, line := range orderLines {
		ok, err := stockTx.TryDecrease(ctx, line.ItemID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("item %s: %w", line.ItemID, domain.ErrOutOfStock)
		}
	}

	var status domain.OrderStatus
	switch {
	case in.PaymentMethod == domain.PaymentPoints:
		ok, err := membersTx.AdjustPoints(ctx, in.MemberID, -quote.PayableAmount)
		if err != nil {
			return nil, err
		}
		if !ok {
			// The balance snapshot read at transaction start can be stale
			// by the time the conditional debit decides; report only what
			// the failed debit itself proves.
			return nil, fmt.Errorf("%w: need %d", domain.ErrInsufficientPoints, quote.PayableAmount)
		}
		status = domain.OrderStatusPreparing
	case in.PaymentMethod.Deferred():
		status = domain.OrderStatusCreated
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPayment, in.PaymentMethod)
	}

	order := &domain.Order{
		OrderNo:       s.orderNo(s.now()),
		MemberID:      member.ID,
		AddressID:     address.ID,
		OrderedAt:     s.now().UTC(),
		PaymentMethod: in.PaymentMethod,
		ReceiverName:  member.Name,
		ReceiverPhone: member.Phone,
		Status:        status,
		ProductsTotal: quote.ProductsTotal,
		DiscountTotal: quote.DiscountTotal,
		ShippingFee:   quote.ShippingFee,
		PayableAmount: quote.PayableAmount,
		Lines:         orderLines,
	}

	if err := s.orders.WithTx(tx).Insert(ctx, order); err != nil {
		return nil, err
	}

	if err := cartsTx.Remove(ctx, consumed); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *Service) resolveAddress(ctx context.Context, membersTx *members.Repository, memberID, addressID string) (*domain.Address, error) {
	if addressID != "" {
		address, err := membersTx.GetAddress(ctx, addressID)
		if err != nil {
			return nil, err
		}
		if address == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrAddressNotFound, addressID)
		}
		return address, nil
	}

	address, err := membersTx.DefaultAddress(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, domain.ErrNoShippingAddress
	}
	return address, nil
}

// Preview prices the selected cart lines without creating an order or
// touching stock. With no address available the quote assumes a
// non-remote destination.
type Preview struct {
	Lines []domain.CartLine `json:"lines"`
	pricing.Quote
}

func (s *Service) PreviewCheckout(ctx context.Context, memberID string, cartLineIDs []string, addressID string) (*Preview, error) {
	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}

	cartLines, err := s.carts.LinesFor(ctx, memberID, cartLineIDs)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var postalCode string
	if addressID != "" {
		address, err := s.members.GetAddress(ctx, addressID)
		if err != nil {
			return nil, err
		}
		if address == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrAddressNotFound, addressID)
		}
		postalCode = address.PostalCode
	} else if address, err := s.members.DefaultAddress(ctx, memberID); err != nil {
		return nil, err
	} else if address != nil {
		postalCode = address.PostalCode
	}

	orderLines := make([]domain.OrderLine, 0, len(cartLines))
	for _, cl := range cartLines {
		orderLines = append(orderLines, domain.OrderLine{
			ItemID: cl.ItemID, ItemName: cl.ItemName,
			Quantity: cl.Quantity, UnitPrice: cl.UnitPrice, Subtotal: cl.Subtotal,
		})
	}

	return &Preview{
		Lines: cartLines,
		Quote: pricing.Calculate(s.pricing, orderLines, member.Grade, postalCode),
	}, nil
}

// ConfirmDeferredPayment moves a deferred-method order from CREATED to
// PREPARING once the external settlement is confirmed.
func (s *Service) ConfirmDeferredPayment(ctx context.Context, orderID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ordersTx := s.orders.WithTx(tx)

	order, err := ordersTx.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}

	if !order.PaymentMethod.Deferred() {
		return fmt.Errorf("payment method %s settles at creation: %w", order.PaymentMethod, domain.ErrInvalidTransition)
	}
	if order.AddressID == "" {
		return domain.ErrNoShippingAddress
	}
	if order.Status != domain.OrderStatusCreated {
		return fmt.Errorf("order is %s, not awaiting payment: %w", order.Status, domain.ErrInvalidTransition)
	}

	if err := ordersTx.UpdateStatus(ctx, orderID, domain.OrderStatusPreparing); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("payment confirmed", "order_id", orderID, "order_no", order.OrderNo)
	return nil
}

// CancelOrder cancels an order the member owns while it is still in
// CREATED or PREPARING, restoring stock for every line and, for
// point-paid orders, crediting the balance back.
func (s *Service) CancelOrder(ctx context.Context, orderID, memberID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ordersTx := s.orders.WithTx(tx)
	stockTx := s.stock.WithTx(tx)
	membersTx := s.members.WithTx(tx)

	order, err := ordersTx.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if order.MemberID != memberID {
		return domain.ErrNotOwner
	}

	if order.Status.Terminal() {
		return fmt.Errorf("order already %s: %w", order.Status, domain.ErrInvalidTransition)
	}
	if !order.Status.Cancelable() {
		return fmt.Errorf("order is %s and can no longer be canceled: %w", order.Status, domain.ErrInvalidTransition)
	}

	for _, line := range order.Lines {
		if err := stockTx.Increase(ctx, line.ItemID, line.Quantity); err != nil {
			return err
		}
	}

	var pointsRefunded int64
	if order.PaymentMethod == domain.PaymentPoints && order.PayableAmount > 0 {
		ok, err := membersTx.AdjustPoints(ctx, memberID, order.PayableAmount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("credit points to member %s: %w", memberID, domain.ErrMemberNotFound)
		}
		pointsRefunded = order.PayableAmount
	}

	if err := ordersTx.UpdateStatus(ctx, orderID, domain.OrderStatusCanceled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.publish(ctx, s.pubs.OrderCanceled, order.ID, domain.OrderCanceledEvent{
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		MemberID:       order.MemberID,
		PointsRefunded: pointsRefunded,
		Timestamp:      s.now().UTC(),
	})

	s.logger.Info("order canceled",
		"order_id", orderID, "order_no", order.OrderNo, "member_id", memberID,
		"points_refunded", pointsRefunded)
	return nil
}

// RequestRefund appends a refund request for a DELIVERED or COMPLETED
// order the member owns and advances the order to REFUND_REQUESTED.
// Disposition of the request is an administrative concern.
func (s *Service) RequestRefund(ctx context.Context, orderID, memberID string, reason domain.RefundReason, detail string) (*domain.OrderRefund, error) {
	if !reason.Known() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRefundReason, reason)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ordersTx := s.orders.WithTx(tx)

	order, err := ordersTx.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.MemberID != memberID {
		return nil, domain.ErrNotOwner
	}
	if !order.Status.Refundable() {
		return nil, fmt.Errorf("order is %s, refunds require delivery: %w", order.Status, domain.ErrInvalidTransition)
	}

	refund := &domain.OrderRefund{
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		ReasonCode:   reason,
		ReasonDetail: detail,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.refunds.WithTx(tx).Insert(ctx, refund); err != nil {
		return nil, err
	}

	if err := ordersTx.UpdateStatus(ctx, orderID, domain.OrderStatusRefundRequested); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, s.pubs.RefundRequested, order.ID, domain.RefundRequestedEvent{
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		MemberID:   order.MemberID,
		ReasonCode: reason,
		Timestamp:  refund.CreatedAt,
	})

	s.logger.Info("refund requested",
		"order_id", orderID, "order_no", order.OrderNo, "member_id", memberID,
		"reason", reason)
	return refund, nil
}

// SetStatus is the administrative status overwrite. It enforces the
// transition table and refuses CANCELED and REFUND_REQUESTED targets,
// which are reachable only through their dedicated operations.
func (s *Service) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Known() {
		return fmt.Errorf("unknown status %q: %w", status, domain.ErrInvalidTransition)
	}
	if status == domain.OrderStatusCanceled || status == domain.OrderStatusRefundRequested {
		return fmt.Errorf("status %s requires its dedicated operation: %w", status, domain.ErrInvalidTransition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ordersTx := s.orders.WithTx(tx)

	order, err := ordersTx.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}

	if !domain.CanTransition(order.Status, status) {
		return fmt.Errorf("%s -> %s: %w", order.Status, status, domain.ErrInvalidTransition)
	}

	if err := ordersTx.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("order status updated", "order_id", orderID, "from", order.Status, "to", status)
	return nil
}

// Orders returns the member's full order history, newest first.
func (s *Service) Orders(ctx context.Context, memberID string) ([]domain.Order, error) {
	return s.orders.ListByMember(ctx, memberID, nil, 0)
}

// RecentOrders returns the member's five most recent orders.
func (s *Service) RecentOrders(ctx context.Context, memberID string) ([]domain.Order, error) {
	return s.orders.ListByMember(ctx, memberID, nil, 5)
}

// CanceledOrders returns the member's canceled and refunded orders.
func (s *Service) CanceledOrders(ctx context.Context, memberID string) ([]domain.Order, error) {
	return s.orders.ListByMember(ctx, memberID,
		[]domain.OrderStatus{domain.OrderStatusCanceled, domain.OrderStatusRefunded}, 0)
}

// OrderDetail returns one order if the member owns it.
func (s *Service) OrderDetail(ctx context.Context, orderID, memberID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.MemberID != memberID {
		return nil, domain.ErrNotOwner
	}
	return order, nil
}

// Refunds returns the member's refund requests, newest first.
func (s *Service) Refunds(ctx context.Context, memberID string) ([]domain.OrderRefund, error) {
	return s.refunds.ListByMember(ctx, memberID)
}

func (s *Service) publish(ctx context.Context, pub EventPublisher, key string, event any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, key, event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "key", key)
	}
}
