package members

import (
	"context"
	"database/sql"

	"github.com/mealkitshop/order-core/internal/domain"
	"github.com/mealkitshop/order-core/internal/postgres"
)

// Repository reads member grade/points and addresses, and is the only
// writer of the points balance within the order core.
type Repository struct {
	db postgres.DBTX
}

func NewRepository(db postgres.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Get(ctx context.Context, memberID string) (*domain.Member, error) {
	member := &domain.Member{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, phone, grade, points
		FROM members
		WHERE id = $1
	`, memberID).Scan(&member.ID, &member.Name, &member.Phone, &member.Grade, &member.Points)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return member, nil
}

// AdjustPoints applies delta to the member's balance as one conditional
// UPDATE. A debit that would push the balance negative affects no rows
// and returns false, so concurrent debits cannot overdraw the account.
func (r *Repository) AdjustPoints(ctx context.Context, memberID string, delta int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET points = points + $2
		WHERE id = $1 AND points + $2 >= 0
	`, memberID, delta)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *Repository) DefaultAddress(ctx context.Context, memberID string) (*domain.Address, error) {
	return r.scanAddress(r.db.QueryRowContext(ctx, `
		SELECT id, member_id, postal_code, street, detail, is_default
		FROM addresses
		WHERE member_id = $1 AND is_default
		LIMIT 1
	`, memberID))
}

func (r *Repository) GetAddress(ctx context.Context, addressID string) (*domain.Address, error) {
	return r.scanAddress(r.db.QueryRowContext(ctx, `
		SELECT id, member_id, postal_code, street, detail, is_default
		FROM addresses
		WHERE id = $1
	`, addressID))
}

func (r *Repository) scanAddress(row *sql.Row) (*domain.Address, error) {
	addr := &domain.Address{}
	err := row.Scan(&addr.ID, &addr.MemberID, &addr.PostalCode, &addr.Street, &addr.Detail, &addr.IsDefault)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return addr, nil
}
