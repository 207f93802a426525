package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/config"
	pg "gym-membership-backend/internal/infra/db/postgres"
	"gym-membership-backend/internal/usecase"
)

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	packageRepo := pg.NewPackageRepo(pool)
	packageUC := usecase.NewPackageUseCase(packageRepo)

	// If packages already exist, do nothing
	pkgs, err := packageUC.List(ctx)
	if err != nil {
		log.Fatalf("list packages: %v", err)
	}
	if len(pkgs) > 0 {
		fmt.Printf("%d packages already present. No changes.\n", len(pkgs))
		for _, p := range pkgs {
			fmt.Printf("  - %s (days=%d, pt=%d, price=%s VND)\n", p.Name, p.DurationDays, p.PTSessions, p.Price)
		}
		return
	}

	// Seed a few sample packages for testing the payment flow
	seed := []struct {
		Name  string
		Desc  string
		Days  int
		PT    int
		Price int64
	}{
		{"Basic 1 Month", "Gym floor access", 30, 0, 300_000},
		{"Gold 1 Month", "Gym floor access plus 8 PT sessions", 30, 8, 450_000},
		{"Gold 3 Months", "Gym floor access plus 24 PT sessions", 90, 24, 1_200_000},
	}

	for _, s := range seed {
		p, err := packageUC.Create(ctx, s.Name, s.Desc, s.Days, s.PT, decimal.NewFromInt(s.Price))
		if err != nil {
			log.Fatalf("create package %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, days=%d, pt=%d, price=%s VND)\n", p.Name, p.ID, p.DurationDays, p.PTSessions, p.Price)
	}

	fmt.Println("✅ Seeding complete.")
}
