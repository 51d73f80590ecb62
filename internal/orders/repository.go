package orders

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/postgres"
)

type Repository struct {
	db postgres.DBTX
}

func NewRepository(db postgres.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// Insert persists the order header and its lines. The caller supplies
// the surrounding transaction; a failed line insert aborts the whole
// order with it.
func (r *Repository) Insert(ctx context.Context, order *domain.Order) error {
	order.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, order_no, member_id, address_id, ordered_at, payment_method,
		                    receiver_name, receiver_phone, status,
		                    products_total, discount_total, shipping_fee, payable_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, order.ID, order.OrderNo, order.MemberID, order.AddressID, order.OrderedAt, order.PaymentMethod,
		order.ReceiverName, order.ReceiverPhone, order.Status,
		order.ProductsTotal, order.DiscountTotal, order.ShippingFee, order.PayableAmount)
	if err != nil {
		return err
	}

	for _, line := range order.Lines {
		lineID := uuid.New().String()
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, item_id, item_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, lineID, order.ID, line.ItemID, line.ItemName, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_no, member_id, address_id, ordered_at, payment_method,
		       receiver_name, receiver_phone, status,
		       products_total, discount_total, shipping_fee, payable_amount
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.OrderNo, &order.MemberID, &order.AddressID, &order.OrderedAt,
		&order.PaymentMethod, &order.ReceiverName, &order.ReceiverPhone, &order.Status,
		&order.ProductsTotal, &order.DiscountTotal, &order.ShippingFee, &order.PayableAmount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, item_name, quantity, unit_price, subtotal
		FROM order_lines
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ItemID, &line.ItemName, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatus overwrites the status column; transition legality is the
// service's concern.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// ListByMember returns the member's orders newest first, with lines
// loaded in one batched query. A limit of 0 means no limit; statuses
// filters when non-empty.
func (r *Repository) ListByMember(ctx context.Context, memberID string, statuses []domain.OrderStatus, limit int) ([]domain.Order, error) {
	query := `
		SELECT id, order_no, member_id, address_id, ordered_at, payment_method,
		       receiver_name, receiver_phone, status,
		       products_total, discount_total, shipping_fee, payable_amount
		FROM orders
		WHERE member_id = $1
	`
	args := []any{memberID}

	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY ordered_at DESC`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.OrderNo, &order.MemberID, &order.AddressID, &order.OrderedAt,
			&order.PaymentMethod, &order.ReceiverName, &order.ReceiverPhone, &order.Status,
			&order.ProductsTotal, &order.DiscountTotal, &order.ShippingFee, &order.PayableAmount); err != nil {
			return nil, err
		}
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, item_name, quantity, unit_price, subtotal
		FROM order_lines
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := lineRows.Scan(&orderID, &line.ItemID, &line.ItemName, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	result := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *orderMap[id])
	}

	return result, nil
}
