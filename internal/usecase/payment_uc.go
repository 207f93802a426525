package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// RateLimiter caps how often a member may start payment attempts.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type PaymentUseCase interface {
	// Initiate creates a payment attempt for the order with the chosen
	// provider and returns the URL to redirect the member to.
	Initiate(ctx context.Context, orderID string, provider model.PaymentProvider, clientIP string) (*model.PaymentAttempt, string, error)
	GetAttempt(ctx context.Context, attemptID string) (*model.PaymentAttempt, error)
}

type paymentUC struct {
	attempts repository.PaymentAttemptRepository
	orders   repository.SubscriptionOrderRepository
	gateways map[model.PaymentProvider]adapter.PaymentGateway
	limiter  RateLimiter
	perHour  int
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	attempts repository.PaymentAttemptRepository,
	orders repository.SubscriptionOrderRepository,
	gateways map[model.PaymentProvider]adapter.PaymentGateway,
	limiter RateLimiter,
	initiationsPerHour int,
	log *zerolog.Logger,
) *paymentUC {
	return &paymentUC{
		attempts: attempts,
		orders:   orders,
		gateways: gateways,
		limiter:  limiter,
		perHour:  initiationsPerHour,
		log:      log,
	}
}

func (u *paymentUC) Initiate(ctx context.Context, orderID string, provider model.PaymentProvider, clientIP string) (*model.PaymentAttempt, string, error) {
	gw, ok := u.gateways[provider]
	if !ok {
		return nil, "", domain.ErrInvalidArgument
	}
	order, err := u.orders.FindByID(ctx, repository.NoTX, orderID)
	if err != nil {
		return nil, "", err
	}
	if !order.Payable() {
		return nil, "", domain.ErrOrderNotPayable
	}

	if u.limiter != nil {
		key := fmt.Sprintf("rate_limit:payment_init:%s", order.MemberID)
		allowed, err := u.limiter.Allow(ctx, key, u.perHour, time.Hour)
		if err != nil {
			u.log.Warn().Err(err).Str("member_id", order.MemberID).Msg("rate limiter unavailable, allowing")
		} else if !allowed {
			metrics.IncPaymentInitiated(string(provider), "rate_limited")
			return nil, "", domain.ErrRateLimited
		}
	}

	orderRef := model.NewOrderRef(order.ID)
	orderInfo := fmt.Sprintf("Gym package payment for order %s", order.ID)

	attempt := &model.PaymentAttempt{
		ID:        uuid.NewString(),
		OrderRef:  orderRef,
		OrderID:   order.ID,
		MemberID:  order.MemberID,
		Provider:  provider,
		Amount:    order.Price,
		Status:    model.PaymentStatusPending,
		CreatedAt: time.Now(),
	}

	start := time.Now()
	payURL, gwErr := gw.CreatePaymentRequest(ctx, orderRef, order.Price, orderInfo, clientIP)
	if gwErr != nil {
		metrics.ObserveGatewayRequest(string(provider), "error", time.Since(start).Seconds())
		metrics.IncPaymentInitiated(string(provider), "gateway_error")
		// Record the failed attempt so the audit trail shows the rejection; a
		// row must never be left pending with no gateway session behind it.
		attempt.Status = model.PaymentStatusFailed
		if err := u.attempts.Create(ctx, repository.NoTX, attempt); err != nil {
			u.log.Error().Err(err).Str("order_ref", orderRef).Msg("failed to record rejected attempt")
		}
		return nil, "", fmt.Errorf("%w: %v", domain.ErrGatewayRequest, gwErr)
	}
	metrics.ObserveGatewayRequest(string(provider), "ok", time.Since(start).Seconds())

	if err := u.attempts.Create(ctx, repository.NoTX, attempt); err != nil {
		return nil, "", err
	}
	metrics.IncPaymentInitiated(string(provider), "ok")
	u.log.Info().
		Str("order_ref", orderRef).
		Str("provider", string(provider)).
		Str("amount", order.Price.String()).
		Msg("payment initiated")
	return attempt, payURL, nil
}

func (u *paymentUC) GetAttempt(ctx context.Context, attemptID string) (*model.PaymentAttempt, error) {
	return u.attempts.FindByID(ctx, repository.NoTX, attemptID)
}
