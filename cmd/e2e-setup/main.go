package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/config"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/infra/db/postgres"
	"gym-membership-backend/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
)

// This script is for setting up a clean, predictable database state
// for manual end-to-end testing of the payment callback flow.
func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Clean the Redis cache to remove any stale data.
	log.Println("[1/4] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	// 2. Clean the database completely.
	log.Println("[2/4] Wiping all existing database data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE
			gym_packages, subscription_orders, payment_attempts,
			memberships, notifications
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	// 3. Seed the package catalog.
	log.Println("[3/4] Seeding packages...")
	pkg := seedPackages(ctx, pool)

	// 4. Seed a pending order and attempt so callbacks can be replayed by hand.
	log.Println("[4/4] Seeding a pending order and payment attempt...")
	seedPendingAttempt(ctx, pool, pkg)

	log.Println("--- ✅ E2E Environment Setup Complete ---")
}

func seedPackages(ctx context.Context, pool *pgxpool.Pool) *model.GymPackage {
	packageRepo := postgres.NewPackageRepo(pool)

	gold, _ := model.NewGymPackage(uuid.NewString(), "Gold 1 Month", "Gym floor access plus 8 PT sessions", 30, 8, decimal.NewFromInt(450_000))
	if err := packageRepo.Save(ctx, nil, gold); err != nil {
		log.Printf("failed to save gold package: %v", err)
	}

	basic, _ := model.NewGymPackage(uuid.NewString(), "Basic 1 Month", "Gym floor access", 30, 0, decimal.NewFromInt(300_000))
	if err := packageRepo.Save(ctx, nil, basic); err != nil {
		log.Printf("failed to save basic package: %v", err)
	}

	return gold
}

func seedPendingAttempt(ctx context.Context, pool *pgxpool.Pool, pkg *model.GymPackage) {
	orderRepo := postgres.NewOrderRepo(pool)
	attemptRepo := postgres.NewPaymentRepo(pool)

	memberID := uuid.NewString()
	order, err := model.NewSubscriptionOrder(uuid.NewString(), memberID, pkg, time.Now())
	if err != nil {
		log.Fatalf("failed to build order: %v", err)
	}
	if err := orderRepo.Save(ctx, nil, order); err != nil {
		log.Fatalf("failed to save order: %v", err)
	}

	attempt := &model.PaymentAttempt{
		ID:        uuid.NewString(),
		OrderRef:  model.NewOrderRef(order.ID),
		OrderID:   order.ID,
		MemberID:  memberID,
		Provider:  model.ProviderVNPay,
		Amount:    order.Price,
		Status:    model.PaymentStatusPending,
		CreatedAt: time.Now(),
	}
	if err := attemptRepo.Create(ctx, nil, attempt); err != nil {
		log.Fatalf("failed to save payment attempt: %v", err)
	}

	log.Printf("member_id=%s order_id=%s attempt_id=%s order_ref=%s amount=%s",
		memberID, order.ID, attempt.ID, attempt.OrderRef, attempt.Amount)
}
