package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

var _ repository.MembershipRepository = (*membershipRepo)(nil)

type membershipRepo struct{ pool *pgxpool.Pool }

func NewMembershipRepo(pool *pgxpool.Pool) *membershipRepo {
	return &membershipRepo{pool: pool}
}

func (r *membershipRepo) Find(ctx context.Context, tx repository.Tx, memberID string) (*model.MembershipRecord, error) {
	const q = `SELECT member_id, expiry_date, active, updated_at FROM memberships WHERE member_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, memberID)
	if err != nil {
		return nil, err
	}

	m := &model.MembershipRecord{}
	if err := row.Scan(&m.MemberID, &m.ExpiryDate, &m.Active, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return m, nil
}

// ExtendExpiry upserts with GREATEST so expiry is monotonic under concurrent
// activations: whoever commits second still only moves the date forward.
func (r *membershipRepo) ExtendExpiry(ctx context.Context, tx repository.Tx, memberID string, newExpiry time.Time) error {
	const q = `
INSERT INTO memberships (member_id, expiry_date, active, updated_at)
VALUES ($1, $2, TRUE, NOW())
ON CONFLICT (member_id) DO UPDATE SET
  expiry_date = GREATEST(memberships.expiry_date, EXCLUDED.expiry_date),
  active = TRUE,
  updated_at = NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, memberID, newExpiry)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
