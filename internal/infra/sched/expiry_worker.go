package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/infra/metrics"
	"gym-membership-backend/internal/infra/redis"
	"gym-membership-backend/internal/usecase"
)

const sweepLockKey = "lock:expiry_sweep"

// ExpiryWorker periodically expires stale payment attempts and overdue
// orders. A Redis lock keeps the sweep single-flight when several replicas
// run; pass a nil locker in single-instance deployments.
type ExpiryWorker struct {
	interval      time.Duration
	attemptMaxAge time.Duration
	reconcileUC   usecase.ReconcileUseCase
	orderUC       usecase.OrderUseCase
	locker        redis.Locker
	log           *zerolog.Logger
}

func NewExpiryWorker(
	interval time.Duration,
	attemptMaxAge time.Duration,
	reconcileUC usecase.ReconcileUseCase,
	orderUC usecase.OrderUseCase,
	locker redis.Locker,
	logger *zerolog.Logger,
) *ExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if attemptMaxAge <= 0 {
		attemptMaxAge = 30 * time.Minute
	}
	sweepLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:      interval,
		attemptMaxAge: attemptMaxAge,
		reconcileUC:   reconcileUC,
		orderUC:       orderUC,
		locker:        locker,
		log:           &sweepLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, sweepLockKey, w.interval)
		if errors.Is(err, domain.ErrLockHeld) {
			return
		}
		if err != nil {
			// Sweeping twice is harmless; the settles are compare-and-swap.
			w.log.Warn().Err(err).Msg("sweep lock unavailable, running anyway")
		} else {
			defer func() {
				if err := w.locker.Unlock(ctx, sweepLockKey, token); err != nil {
					w.log.Warn().Err(err).Msg("failed to release sweep lock")
				}
			}()
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()

	if _, err := w.reconcileUC.ExpireStaleAttempts(runCtx, now.Add(-w.attemptMaxAge), 200); err != nil {
		w.log.Error().Err(err).Msg("stale attempt sweep error")
	}

	closed, err := w.orderUC.ExpireOverdue(runCtx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("overdue order sweep error")
	}
	if closed > 0 {
		metrics.AddOrdersExpired(closed)
		w.log.Info().Int("count", closed).Msg("overdue orders expired")
	}
}
