package repository

import (
	"context"
	"time"

	"gym-membership-backend/internal/domain/model"
)

// PaymentAttemptRepository is the payment ledger contract. There is no blind
// save of a status: every terminal transition goes through SettleIfPending,
// which must be a single atomic conditional update at the storage layer.
type PaymentAttemptRepository interface {
	Create(ctx context.Context, tx Tx, p *model.PaymentAttempt) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentAttempt, error)
	FindByOrderRef(ctx context.Context, tx Tx, orderRef string) (*model.PaymentAttempt, error)

	// SettleIfPending moves the attempt to a terminal status only if it is
	// still pending, returning false when another writer got there first.
	SettleIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerTxnRef *string, confirmedAt *time.Time) (bool, error)

	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentAttempt, error)
	SumCompletedByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}
