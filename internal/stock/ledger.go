package stock

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/postgres"
)

// Ledger is the only writer of stock counts. Both mutations are single
// conditional UPDATEs so concurrent orders against the same item can
// never drive the count negative.
type Ledger struct {
	db postgres.DBTX
}

func NewLedger(db postgres.DBTX) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to tx so stock mutations commit or roll
// back with the rest of an order operation.
func (l *Ledger) WithTx(tx *sql.Tx) *Ledger {
	return &Ledger{db: tx}
}

// TryDecrease atomically subtracts qty from the item's stock if enough
// is available. It returns false, without mutating anything, when stock
// is short; the caller decides what out-of-stock means.
func (l *Ledger) TryDecrease(ctx context.Context, itemID string, qty int) (bool, error) {
	result, err := l.db.ExecContext(ctx, `
		UPDATE items
		SET stock = stock - $2
		WHERE item_id = $1 AND stock >= $2
	`, itemID, qty)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// Increase adds qty back to the item's stock, used for restitution when
// an order is canceled and for administrative restocks.
func (l *Ledger) Increase(ctx context.Context, itemID string, qty int) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE items
		SET stock = stock + $2
		WHERE item_id = $1
	`, itemID, qty)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("increase stock for %s: %w", itemID, domain.ErrItemNotFound)
	}

	return nil
}

func (l *Ledger) GetLevel(ctx context.Context, itemID string) (*domain.StockLevel, error) {
	level := &domain.StockLevel{}

	err := l.db.QueryRowContext(ctx, `
		SELECT item_id, name, stock
		FROM items
		WHERE item_id = $1
	`, itemID).Scan(&level.ItemID, &level.Name, &level.Stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return level, nil
}

func (l *Ledger) ListLevels(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT item_id, name, stock
		FROM items
		ORDER BY item_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var levels []domain.StockLevel
	for rows.Next() {
		var level domain.StockLevel
		if err := rows.Scan(&level.ItemID, &level.Name, &level.Stock); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return levels, nil
}
