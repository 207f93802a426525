package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	// PlaceOrder creates a pending order for a package. A zero startDate means
	// the subscription starts as soon as the payment is confirmed.
	PlaceOrder(ctx context.Context, memberID, packageID string, startDate time.Time) (*model.SubscriptionOrder, error)
	GetOrder(ctx context.Context, orderID string) (*model.SubscriptionOrder, error)
	ListOrders(ctx context.Context, memberID string) ([]*model.SubscriptionOrder, error)
	ListPackages(ctx context.Context) ([]*model.GymPackage, error)
	// ExpireOverdue closes active orders whose end date has passed. Called by
	// the background sweep.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type orderUC struct {
	orders   repository.SubscriptionOrderRepository
	packages repository.GymPackageRepository
	log      *zerolog.Logger
}

func NewOrderUseCase(orders repository.SubscriptionOrderRepository, packages repository.GymPackageRepository, log *zerolog.Logger) *orderUC {
	return &orderUC{orders: orders, packages: packages, log: log}
}

func (u *orderUC) PlaceOrder(ctx context.Context, memberID, packageID string, startDate time.Time) (*model.SubscriptionOrder, error) {
	if memberID == "" || packageID == "" {
		return nil, domain.ErrInvalidArgument
	}
	pkg, err := u.packages.FindByID(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}
	order, err := model.NewSubscriptionOrder(uuid.NewString(), memberID, pkg, startDate)
	if err != nil {
		return nil, err
	}
	if err := u.orders.Save(ctx, repository.NoTX, order); err != nil {
		return nil, err
	}
	u.log.Info().Str("order_id", order.ID).Str("member_id", memberID).Str("package_id", packageID).Msg("order placed")
	return order, nil
}

func (u *orderUC) GetOrder(ctx context.Context, orderID string) (*model.SubscriptionOrder, error) {
	return u.orders.FindByID(ctx, repository.NoTX, orderID)
}

func (u *orderUC) ListOrders(ctx context.Context, memberID string) ([]*model.SubscriptionOrder, error) {
	return u.orders.ListByMember(ctx, repository.NoTX, memberID)
}

func (u *orderUC) ListPackages(ctx context.Context) ([]*model.GymPackage, error) {
	return u.packages.ListAll(ctx, repository.NoTX)
}

func (u *orderUC) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	n, err := u.orders.ExpireOverdue(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info().Int("count", n).Msg("orders expired")
	}
	return n, nil
}
