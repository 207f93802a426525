package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	// Revenue sums completed payments since the start of the current period
	// ("week", "month" or "year").
	Revenue(ctx context.Context, period string) (int64, error)
}

type statsUC struct {
	attempts repository.PaymentAttemptRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(attempts repository.PaymentAttemptRepository, log *zerolog.Logger) *statsUC {
	return &statsUC{attempts: attempts, log: log}
}

func (u *statsUC) Revenue(ctx context.Context, period string) (int64, error) {
	switch period {
	case "week", "month", "year":
	default:
		return 0, domain.ErrInvalidArgument
	}
	return u.attempts.SumCompletedByPeriod(ctx, repository.NoTX, period)
}
