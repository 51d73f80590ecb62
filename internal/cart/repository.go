package cart

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/postgres"
)

// Repository reads a member's cart joined against the live catalog and
// removes lines that an order has consumed. Cart CRUD itself lives
// outside the order core.
type Repository struct {
	db postgres.DBTX
}

func NewRepository(db postgres.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// LinesFor returns the member's cart lines priced at the items' current
// sale price. A non-empty lineIDs filters to the selected lines;
// otherwise the whole cart is returned.
func (r *Repository) LinesFor(ctx context.Context, memberID string, lineIDs []string) ([]domain.CartLine, error) {
	query := `
		SELECT cl.id, cl.item_id, i.name, cl.quantity, i.sale_price,
		       cl.quantity * i.sale_price
		FROM cart_lines cl
		JOIN items i ON i.item_id = cl.item_id
		WHERE cl.member_id = $1
	`
	args := []any{memberID}

	if len(lineIDs) > 0 {
		query += ` AND cl.id = ANY($2)`
		args = append(args, pq.Array(lineIDs))
	}
	query += ` ORDER BY cl.created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.LineID, &line.ItemID, &line.ItemName, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// Remove deletes the consumed lines after an order commits.
func (r *Repository) Remove(ctx context.Context, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE id = ANY($1)
	`, pq.Array(lineIDs))
	return err
}
