package usecase

import (
	"context"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	ListByMember(ctx context.Context, memberID string, limit int) ([]*model.NotificationRecord, error)
}

type notificationUC struct {
	logRepo repository.NotificationLogRepository
}

func NewNotificationUseCase(logRepo repository.NotificationLogRepository) *notificationUC {
	return &notificationUC{logRepo: logRepo}
}

func (u *notificationUC) ListByMember(ctx context.Context, memberID string, limit int) ([]*model.NotificationRecord, error) {
	return u.logRepo.ListByMember(ctx, repository.NoTX, memberID, limit)
}
