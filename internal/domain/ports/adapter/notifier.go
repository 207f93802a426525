package adapter

import (
	"context"

	"gym-membership-backend/internal/domain/model"
)

// Notifier dispatches a user-facing notification. Black-box side effect: the
// reconciliation engine calls it best-effort after the state transition has
// committed and never rolls back on notification failure.
type Notifier interface {
	Notify(ctx context.Context, memberID, title, message string, kind model.NotificationKind) error
}
