package repository

import (
	"context"
	"time"

	"gym-membership-backend/internal/domain/model"
)

type MembershipRepository interface {
	Find(ctx context.Context, tx Tx, memberID string) (*model.MembershipRecord, error)

	// ExtendExpiry moves the member's expiry to the later of its current value
	// and newExpiry, creating the record when missing. The max() must be
	// computed by the storage layer so concurrent activations stay monotonic.
	ExtendExpiry(ctx context.Context, tx Tx, memberID string, newExpiry time.Time) error
}
