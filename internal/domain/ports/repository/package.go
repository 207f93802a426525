package repository

import (
	"context"

	"gym-membership-backend/internal/domain/model"
)

type GymPackageRepository interface {
	Save(ctx context.Context, tx Tx, pkg *model.GymPackage) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GymPackage, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.GymPackage, error)
}
