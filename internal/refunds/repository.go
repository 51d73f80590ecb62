package refunds

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/postgres"
)

// Repository is the append-only refund queue. The order core only ever
// inserts PENDING rows; approval and rejection belong to the external
// administrative workflow.
type Repository struct {
	db postgres.DBTX
}

func NewRepository(db postgres.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Insert(ctx context.Context, refund *domain.OrderRefund) error {
	refund.ID = uuid.New().String()
	refund.Disposition = domain.RefundPending

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_refunds (id, order_id, reason_code, reason_detail, disposition, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, refund.ID, refund.OrderID, refund.ReasonCode, refund.ReasonDetail, refund.Disposition, refund.CreatedAt)
	return err
}

// ListByMember returns the member's refund requests, newest first.
func (r *Repository) ListByMember(ctx context.Context, memberID string) ([]domain.OrderRefund, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT rf.id, rf.order_id, o.order_no, rf.reason_code, rf.reason_detail, rf.disposition, rf.created_at
		FROM order_refunds rf
		JOIN orders o ON o.id = rf.order_id
		WHERE o.member_id = $1
		ORDER BY rf.created_at DESC
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var refunds []domain.OrderRefund
	for rows.Next() {
		var rf domain.OrderRefund
		if err := rows.Scan(&rf.ID, &rf.OrderID, &rf.OrderNo, &rf.ReasonCode, &rf.ReasonDetail, &rf.Disposition, &rf.CreatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refunds, nil
}
