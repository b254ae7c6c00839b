package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/archfoundry/archcomp-backend/api/routes"
	"github.com/archfoundry/archcomp-backend/internal/audit"
	"github.com/archfoundry/archcomp-backend/internal/cart"
	"github.com/archfoundry/archcomp-backend/internal/checkout"
	"github.com/archfoundry/archcomp-backend/internal/competitions"
	"github.com/archfoundry/archcomp-backend/internal/jury"
	"github.com/archfoundry/archcomp-backend/internal/notifications"
	"github.com/archfoundry/archcomp-backend/internal/payments"
	"github.com/archfoundry/archcomp-backend/internal/registrations"
	"github.com/archfoundry/archcomp-backend/internal/submissions"
	payherewebhook "github.com/archfoundry/archcomp-backend/internal/webhooks/payhere"
	"github.com/archfoundry/archcomp-backend/pkg/config"
	"github.com/archfoundry/archcomp-backend/pkg/db"
	"github.com/archfoundry/archcomp-backend/pkg/logger"
	"github.com/archfoundry/archcomp-backend/pkg/migrate"
	"github.com/archfoundry/archcomp-backend/pkg/payhere"
	"github.com/archfoundry/archcomp-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	competitionsRepo := competitions.NewRepository(gormDB)
	auditRepo := audit.NewRepository(gormDB)

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notifications.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:         cart.NewRepository(gormDB),
		Tx:           dbClient,
		Competitions: competitionsRepo,
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

	paymentsRepo := payments.NewRepository(gormDB)
	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:          paymentsRepo,
		Tx:            dbClient,
		Materializer:  registrationsService,
		Registrations: registrationsService,
		Audit:         auditRepo,
		Notifier:      notificationsService,
		Gateway:       gateway,
		Logger:        logg,
		PendingGrace:  cfg.Cron.PendingPaymentGrace,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	orderSequencer, err := checkout.NewOrderSequencer(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create order sequencer", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:    cartService,
		Payments: paymentsRepo,
		Gateway:  gateway,
		OrderIDs: orderSequencer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	submissionsService, err := submissions.NewService(submissions.ServiceParams{
		Repo:          submissions.NewRepository(gormDB),
		Tx:            dbClient,
		Registrations: registrationsService,
		Notifier:      notificationsService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create submissions service", err)
		os.Exit(1)
	}

	juryService, err := jury.NewService(jury.ServiceParams{
		Repo:          jury.NewRepository(gormDB),
		Registrations: registrationsService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create jury service", err)
		os.Exit(1)
	}

	webhookGuard, err := payherewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "payhere")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}
	webhookService, err := payherewebhook.NewService(payherewebhook.ServiceParams{
		Verifier: gateway,
		Payments: paymentsService,
		Guard:    webhookGuard,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payhere webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Competitions:   competitionsRepo,
			Carts:          cartService,
			Checkout:       checkoutService,
			Payments:       paymentsService,
			Registrations:  registrationsService,
			Submissions:    submissionsService,
			Jury:           juryService,
			Notifications:  notificationsService,
			PayHereWebhook: webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
