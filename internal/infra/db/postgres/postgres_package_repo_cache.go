package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
	red "gym-membership-backend/internal/infra/redis"
)

var _ repository.GymPackageRepository = (*packageRepoCacheDecorator)(nil)

// packageRepoCacheDecorator is a read-through cache over the package catalog.
// Packages change rarely and are read on every order placement, so an hour of
// staleness after a crash-window miss is acceptable.
type packageRepoCacheDecorator struct {
	inner repository.GymPackageRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPackageRepoCacheDecorator(inner repository.GymPackageRepository, cache red.RedisClient) repository.GymPackageRepository {
	return &packageRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *packageRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GymPackage, error) {
	key := fmt.Sprintf("package:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("package", "hit")
		var pkg model.GymPackage
		if json.Unmarshal([]byte(val), &pkg) == nil {
			return &pkg, nil
		}
	}

	metrics.IncCacheRequest("package", "miss")
	pkg, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		bytes, _ := json.Marshal(pkg)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return pkg, nil
}

// Writes invalidate both the single-package key and the catalog list.
func (d *packageRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, pkg *model.GymPackage) error {
	key := fmt.Sprintf("package:%s", pkg.ID)
	d.cache.Del(ctx, key)
	d.cache.Del(ctx, "packages:all")
	return d.inner.Save(ctx, tx, pkg)
}

func (d *packageRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GymPackage, error) {
	key := "packages:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("package_list", "hit")
		var pkgs []*model.GymPackage
		if json.Unmarshal([]byte(val), &pkgs) == nil {
			return pkgs, nil
		}
	}

	metrics.IncCacheRequest("package_list", "miss")
	pkgs, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(pkgs) > 0 {
		bytes, _ := json.Marshal(pkgs)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return pkgs, nil
}
