package repository

import (
	"context"
	"time"

	"gym-membership-backend/internal/domain/model"
)

type SubscriptionOrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.SubscriptionOrder) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionOrder, error)
	ListByMember(ctx context.Context, tx Tx, memberID string) ([]*model.SubscriptionOrder, error)

	// ActivateIfPending flips a pending order to active with the given end
	// date; returns false if the order already left the pending state.
	ActivateIfPending(ctx context.Context, tx Tx, id string, endDate time.Time) (bool, error)

	// ExpireOverdue marks active orders whose end date has passed as expired,
	// returning how many rows changed.
	ExpireOverdue(ctx context.Context, tx Tx, now time.Time) (int, error)
}
