package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ PackageUseCase = (*packageUC)(nil)

// PackageUseCase manages the package catalog (admin side).
type PackageUseCase interface {
	Create(ctx context.Context, name, description string, durationDays, ptSessions int, price decimal.Decimal) (*model.GymPackage, error)
	List(ctx context.Context) ([]*model.GymPackage, error)
}

type packageUC struct {
	packages repository.GymPackageRepository
}

func NewPackageUseCase(packages repository.GymPackageRepository) *packageUC {
	return &packageUC{packages: packages}
}

func (u *packageUC) Create(ctx context.Context, name, description string, durationDays, ptSessions int, price decimal.Decimal) (*model.GymPackage, error) {
	pkg, err := model.NewGymPackage(uuid.NewString(), name, description, durationDays, ptSessions, price)
	if err != nil {
		return nil, err
	}
	if err := u.packages.Save(ctx, repository.NoTX, pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (u *packageUC) List(ctx context.Context) ([]*model.GymPackage, error) {
	return u.packages.ListAll(ctx, repository.NoTX)
}
