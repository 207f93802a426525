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

var _ repository.SubscriptionOrderRepository = (*orderRepo)(nil)

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

const orderColumns = `id, member_id, package_id, start_date, end_date, remaining_pt_sessions, status, price, created_at`

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.SubscriptionOrder) error {
	const q = `
INSERT INTO subscription_orders (` + orderColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  start_date=$4, end_date=$5, remaining_pt_sessions=$6, status=$7, price=$8;`

	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.MemberID, o.PackageID, o.StartDate, o.EndDate, o.RemainingPTSessions, o.Status, o.Price, o.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.SubscriptionOrder, error) {
	o := &model.SubscriptionOrder{}
	if err := row.Scan(&o.ID, &o.MemberID, &o.PackageID, &o.StartDate, &o.EndDate, &o.RemainingPTSessions, &o.Status, &o.Price, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func (r *orderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionOrder, error) {
	const q = `SELECT ` + orderColumns + ` FROM subscription_orders WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.SubscriptionOrder, error) {
	const q = `SELECT ` + orderColumns + ` FROM subscription_orders WHERE member_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.SubscriptionOrder
	for rows.Next() {
		o := new(model.SubscriptionOrder)
		if err := rows.Scan(&o.ID, &o.MemberID, &o.PackageID, &o.StartDate, &o.EndDate, &o.RemainingPTSessions, &o.Status, &o.Price, &o.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, o)
	}
	return out, nil
}

// ActivateIfPending mirrors the payment guard on the order side: activation
// only ever happens once, whichever callback channel gets there first.
func (r *orderRepo) ActivateIfPending(ctx context.Context, tx repository.Tx, id string, endDate time.Time) (bool, error) {
	const q = `
UPDATE subscription_orders
   SET status = 'active', end_date = $2
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, endDate)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *orderRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `UPDATE subscription_orders SET status='expired' WHERE status='active' AND end_date < $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}
