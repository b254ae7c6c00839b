package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/archfoundry/archcomp-backend/internal/audit"
	"github.com/archfoundry/archcomp-backend/internal/cart"
	"github.com/archfoundry/archcomp-backend/internal/competitions"
	"github.com/archfoundry/archcomp-backend/internal/cron"
	"github.com/archfoundry/archcomp-backend/internal/notifications"
	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/internal/registrations"
	"github.com/archfoundry/archcomp-backend/pkg/config"
	"github.com/archfoundry/archcomp-backend/pkg/db"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/metrics"
	"github.com/archfoundry/archcomp-backend/pkg/migrate"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
	"github.com/archfoundry/archcomp-backend/pkg/redis"
)

const lockKeyFormat = "archcomp:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := payhere.NewClient(cfg.PayHere)
	if err != nil {
		logg.Error(context.Background(), "failed to create payhere client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	cartRepo := cart.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notificationsRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:         cartRepo,
		Tx:           dbClient,
		Competitions: competitions.NewRepository(gormDB),
		CartTTL:      cfg.Cart.TTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	registrationsService, err := registrations.NewService(registrations.ServiceParams{
		Repo:              registrations.NewRepository(gormDB),
		Tx:                dbClient,
		Logger:            logg,
		DisplayCodePrefix: cfg.Registration.DisplayCodePrefix,
		TxTimeout:         cfg.Webhook.TxTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create registrations service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:          payments.NewRepository(gormDB),
		Tx:            dbClient,
		Materializer:  registrationsService,
		Registrations: registrationsService,
		Audit:         audit.NewRepository(gormDB),
		Notifier:      notificationsService,
		Gateway:       gateway,
		Logger:        logg,
		PendingGrace:  cfg.Cron.PendingPaymentGrace,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	cartExpiryJob, err := cron.NewCartExpiryJob(cron.CartExpiryJobParams{
		Logger: logg,
		Carts:  cartRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart expiry job", err)
		os.Exit(1)
	}
	duplicateCartJob, err := cron.NewDuplicateCartJob(cron.DuplicateCartJobParams{
		Logger: logg,
		Carts:  cartService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create duplicate cart job", err)
		os.Exit(1)
	}
	paymentReconcileJob, err := cron.NewPaymentReconcileJob(cron.PaymentReconcileJobParams{
		Logger:   logg,
		Payments: paymentsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconcile job", err)
		os.Exit(1)
	}
	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		cartExpiryJob,
		duplicateCartJob,
		paymentReconcileJob,
		notificationCleanupJob,
	)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Cron.MetricsPort,
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error shutting down metrics server", err)
		}
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
