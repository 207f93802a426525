package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
)

var _ repository.GymPackageRepository = (*packageRepo)(nil)

type packageRepo struct{ pool *pgxpool.Pool }

func NewPackageRepo(pool *pgxpool.Pool) *packageRepo {
	return &packageRepo{pool: pool}
}

const packageColumns = `id, name, description, duration_days, pt_sessions, price, created_at`

func (r *packageRepo) Save(ctx context.Context, tx repository.Tx, pkg *model.GymPackage) error {
	const q = `
INSERT INTO gym_packages (` + packageColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, duration_days=$4, pt_sessions=$5, price=$6;`

	_, err := execSQL(ctx, r.pool, tx, q,
		pkg.ID, pkg.Name, pkg.Description, pkg.DurationDays, pkg.PTSessions, pkg.Price, pkg.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *packageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GymPackage, error) {
	const q = `SELECT ` + packageColumns + ` FROM gym_packages WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	pkg := &model.GymPackage{}
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &pkg.DurationDays, &pkg.PTSessions, &pkg.Price, &pkg.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return pkg, nil
}

func (r *packageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GymPackage, error) {
	const q = `SELECT ` + packageColumns + ` FROM gym_packages ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.GymPackage
	for rows.Next() {
		pkg := new(model.GymPackage)
		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &pkg.DurationDays, &pkg.PTSessions, &pkg.Price, &pkg.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, pkg)
	}
	return out, nil
}
