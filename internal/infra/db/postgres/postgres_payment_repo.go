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

var _ repository.PaymentAttemptRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_ref, order_id, member_id, provider, amount, status, provider_txn_ref, created_at, confirmed_at`

func (r *paymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.PaymentAttempt) error {
	const q = `
INSERT INTO payment_attempts (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrderRef, p.OrderID, p.MemberID, p.Provider, p.Amount, p.Status, p.ProviderTxnRef, p.CreatedAt, p.ConfirmedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanAttempt(row pgx.Row) (*model.PaymentAttempt, error) {
	p := &model.PaymentAttempt{}
	if err := row.Scan(&p.ID, &p.OrderRef, &p.OrderID, &p.MemberID, &p.Provider, &p.Amount, &p.Status, &p.ProviderTxnRef, &p.CreatedAt, &p.ConfirmedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentAttempt, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payment_attempts WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanAttempt(row)
}

func (r *paymentRepo) FindByOrderRef(ctx context.Context, tx repository.Tx, orderRef string) (*model.PaymentAttempt, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payment_attempts WHERE order_ref=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderRef)
	if err != nil {
		return nil, err
	}
	return scanAttempt(row)
}

// SettleIfPending is the reconciliation guard: a single conditional UPDATE,
// atomic at the storage layer. Terminal rows never match the WHERE clause, so
// replays and the losing callback channel report false here.
func (r *paymentRepo) SettleIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerTxnRef *string, confirmedAt *time.Time,
) (bool, error) {
	const q = `
UPDATE payment_attempts
   SET status = $2,
       provider_txn_ref = COALESCE($3, provider_txn_ref),
       confirmed_at = COALESCE($4, confirmed_at)
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), providerTxnRef, confirmedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentAttempt, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payment_attempts WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.PaymentAttempt
	for rows.Next() {
		p := new(model.PaymentAttempt)
		if err := rows.Scan(&p.ID, &p.OrderRef, &p.OrderID, &p.MemberID, &p.Provider, &p.Amount, &p.Status, &p.ProviderTxnRef, &p.CreatedAt, &p.ConfirmedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) SumCompletedByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0)::bigint FROM payment_attempts WHERE status='completed' AND confirmed_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}

	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
