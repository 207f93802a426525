package repository

import (
	"context"

	"gym-membership-backend/internal/domain/model"
)

type NotificationLogRepository interface {
	Save(ctx context.Context, tx Tx, n *model.NotificationRecord) error
	ListByMember(ctx context.Context, tx Tx, memberID string, limit int) ([]*model.NotificationRecord, error)
}
