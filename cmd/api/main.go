package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pratik-mahalle/dialekt/internal/api/handlers"
	"github.com/pratik-mahalle/dialekt/internal/api/router"
	"github.com/pratik-mahalle/dialekt/internal/config"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/validator"
	"github.com/pratik-mahalle/dialekt/internal/providers"
	"github.com/pratik-mahalle/dialekt/internal/repository/postgres"
	"github.com/pratik-mahalle/dialekt/internal/services"
	"github.com/pratik-mahalle/dialekt/internal/worker"
	"github.com/pratik-mahalle/dialekt/migrations"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// @title Dialekt API
// @version 1.0
// @description Subscription gated dialect chat assistant
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dialekt: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	log.WithFields(map[string]interface{}{
		"version":     version,
		"environment": cfg.Server.Environment,
		"db_driver":   cfg.Database.Driver,
		"completion":  cfg.Completion.Provider,
	}).Info("Starting dialekt API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	migrationFS, err := migrations.ForDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}
	applied, err := postgres.RunMigrations(ctx, db, migrationFS)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if len(applied) > 0 {
		log.With("migrations", applied).Info("Applied database migrations")
	}

	completion, err := providers.NewCompletion(cfg.Completion)
	if err != nil {
		return fmt.Errorf("configure completion provider: %w", err)
	}
	gateway := providers.NewStripeGateway(providers.StripeConfig{
		SecretKey:     cfg.Billing.StripeSecretKey,
		WebhookSecret: cfg.Billing.StripeWebhookSecret,
		PriceID:       cfg.Billing.PremiumPriceID,
		SuccessURL:    cfg.Billing.CheckoutSuccessURL,
		CancelURL:     cfg.Billing.CheckoutCancelURL,
	})

	// Repositories
	profileRepo := postgres.NewProfileRepository(db)
	subRepo := postgres.NewSubscriptionRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	chatRepo := postgres.NewChatRepository(db)

	// Services
	policy := plan.Policy{
		DailyLimit:  cfg.Plan.FreeDailyLimit,
		TrialPeriod: cfg.Plan.TrialPeriod,
		Location:    cfg.Plan.Location(),
	}
	var clock services.Clock
	profileSvc := services.NewProfileService(profileRepo, clock, log)
	planSvc := services.NewPlanService(subRepo, usageRepo, profileSvc, policy, clock, log)
	chatSvc := services.NewChatService(chatRepo, planSvc, completion, services.ChatConfig{
		HistoryWindow:     cfg.Completion.HistoryWindow,
		CompletionTimeout: cfg.Completion.Timeout,
	}, clock, log)
	billingSvc := services.NewBillingService(gateway, subRepo, planSvc, profileSvc, cfg.Billing.Timeout, clock, log)

	pruner, err := worker.NewUsagePruner(usageRepo, policy, cfg.Plan.PruneSchedule, cfg.Plan.UsageRetentionDays, nil, log)
	if err != nil {
		return err
	}

	// HTTP
	val := validator.New()
	handler := router.New(cfg, log, &router.Handlers{
		Health:  handlers.NewHealthHandler(db, version, log),
		Chat:    handlers.NewChatHandler(chatSvc, log, val),
		Plan:    handlers.NewPlanHandler(planSvc, log),
		Profile: handlers.NewProfileHandler(profileSvc, log),
		Billing: handlers.NewBillingHandler(billingSvc, planSvc, gateway, log, val),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.With("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return pruner.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.ErrorWithErr(err, "Server stopped with error")
		return err
	}
	log.Info("Server stopped")
	return nil
}
