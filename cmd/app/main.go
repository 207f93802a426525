package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym-membership-backend/internal/config"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/infra/adapters/notify"
	payAdapters "gym-membership-backend/internal/infra/adapters/payment"
	pg "gym-membership-backend/internal/infra/db/postgres"
	httpapi "gym-membership-backend/internal/infra/http"
	"gym-membership-backend/internal/infra/logging"
	"gym-membership-backend/internal/infra/metrics"
	red "gym-membership-backend/internal/infra/redis"
	"gym-membership-backend/internal/infra/sched"
	"gym-membership-backend/internal/infra/web"
	"gym-membership-backend/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Global.Fatal().Err(err).Msg("config")
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	attemptRepo := pg.NewPaymentRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	membershipRepo := pg.NewMembershipRepo(pool)
	packageRepo := pg.NewPackageRepoCacheDecorator(pg.NewPackageRepo(pool), redisClient)
	notifLogRepo := pg.NewNotificationLogRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateways ----
	momo, err := payAdapters.NewMoMoGateway(cfg.Payment.MoMo)
	if err != nil {
		log.Fatal().Err(err).Msg("momo gateway")
	}
	vnpay, err := payAdapters.NewVNPayGateway(cfg.Payment.VNPay)
	if err != nil {
		log.Fatal().Err(err).Msg("vnpay gateway")
	}
	gateways := map[model.PaymentProvider]adapter.PaymentGateway{
		model.ProviderMoMo:  momo,
		model.ProviderVNPay: vnpay,
	}

	// ---- Use cases ----
	notifier := notify.NewLogNotifier(notifLogRepo, log)
	orderUC := usecase.NewOrderUseCase(orderRepo, packageRepo, log)
	paymentUC := usecase.NewPaymentUseCase(attemptRepo, orderRepo, gateways, rateLimiter, cfg.Payment.InitiationsPerHour, log)
	reconcileUC := usecase.NewReconcileUseCase(attemptRepo, orderRepo, membershipRepo, gateways, txManager, notifier, log)
	statsUC := usecase.NewStatsUseCase(attemptRepo, log)
	packageUC := usecase.NewPackageUseCase(packageRepo)
	notifUC := usecase.NewNotificationUseCase(notifLogRepo)

	// ---- Public HTTP server ----
	publicSrv := httpapi.NewServer(orderUC, paymentUC, reconcileUC, notifUC, gateways, log)
	go func() {
		if err := publicSrv.Start(cfg.HTTP.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("public http server error")
		}
	}()

	// ---- Manager server, on its own port ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	managerSrv := web.NewServer(statsUC, reconcileUC, paymentUC, packageUC, vnpay, auth, cfg.Admin.Password, log)
	managerMux := http.NewServeMux()
	managerSrv.RegisterRoutes(managerMux)
	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: managerMux}
	go func() {
		log.Info().Int("port", cfg.Admin.Port).Msg("manager http server listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("manager http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.SweepInterval, cfg.Scheduler.AttemptMaxAge, reconcileUC, orderUC, locker, log)
	go func() { _ = worker.Run(ctx) }()

	// ---- DB pool gauge ----
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := publicSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("public server shutdown")
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("manager server shutdown")
	}
}
