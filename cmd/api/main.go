package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/di"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/handlers"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/payments"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/auth"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/config"
	pfirestore "github.com/tomychi/anhelo-dashboard-sub001/internal/platform/firestore"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/jobs"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/observability"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/secrets"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/storage"
	repofs "github.com/tomychi/anhelo-dashboard-sub001/internal/repositories/firestore"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := observability.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(ctx, logger)
	if err != nil {
		logger.Error("configuration failed", zap.Error(err))
		return err
	}

	provider := pfirestore.NewProvider(cfg.Firestore)
	registry, err := repofs.NewRegistry(provider)
	if err != nil {
		logger.Error("repository wiring failed", zap.Error(err))
		return err
	}

	publisher, closePublisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closePublisher != nil {
		defer closePublisher()
	}

	uploader, closeUploader, err := buildUploader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closeUploader != nil {
		defer closeUploader()
	}

	var psp payments.Provider
	if cfg.PSP.StripeAPIKey != "" {
		stripeProvider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
			APIKey: cfg.PSP.StripeAPIKey,
			Logger: func(ctx context.Context, event string, fields map[string]any) {
				zapFields := make([]zap.Field, 0, len(fields))
				for k, v := range fields {
					zapFields = append(zapFields, zap.Any(k, v))
				}
				logger.Info(event, zapFields...)
			},
		})
		if err != nil {
			logger.Error("stripe wiring failed", zap.Error(err))
			return err
		}
		psp = stripeProvider
	}

	container, err := di.NewContainer(ctx, cfg, di.ContainerDeps{
		Registry: registry,
		Events:   publisher,
		Payments: psp,
		Uploader: uploader,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("container wiring failed", zap.Error(err))
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close failed", zap.Error(err))
		}
	}()

	adminMiddlewares, err := buildAdminAuth(ctx, cfg, logger)
	if err != nil {
		return err
	}

	router := buildRouter(cfg, logger, provider, container, psp, adminMiddlewares)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func loadConfig(ctx context.Context, logger *zap.Logger) (config.Config, error) {
	opts := []config.Option{}

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger),
		secrets.WithDefaultProject(os.Getenv("FIRESTORE_PROJECT_ID")),
	)
	if err != nil {
		// Local runs against the emulator have no Secret Manager access.
		logger.Warn("secret manager unavailable, sm:// references will fail", zap.Error(err))
	} else {
		defer func() { _ = fetcher.Close() }()
		opts = append(opts, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
	}

	return config.Load(ctx, opts...)
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.OrderEventPublisher, func(), error) {
	if cfg.Events.Topic == "" {
		return nil, nil, nil
	}
	projectID := cfg.Events.ProjectID
	if projectID == "" {
		projectID = cfg.Firestore.ProjectID
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		logger.Error("pubsub wiring failed", zap.Error(err))
		return nil, nil, err
	}
	topic := client.Topic(cfg.Events.Topic)
	publisher, err := jobs.NewPubSubOrderEventPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	closeFn := func() {
		topic.Stop()
		_ = client.Close()
	}
	return publisher, closeFn, nil
}

func buildUploader(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.ObjectUploader, func(), error) {
	if !cfg.Features.EnableExports || cfg.Exports.Bucket == "" {
		return nil, nil, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Error("storage wiring failed", zap.Error(err))
		return nil, nil, err
	}
	uploader, err := storage.NewUploader(client, cfg.Exports.Bucket)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return uploader, func() { _ = client.Close() }, nil
}

func buildAdminAuth(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]func(http.Handler) http.Handler, error) {
	if cfg.Firebase.ProjectID == "" {
		logger.Warn("firebase project not configured, admin surface is unauthenticated")
		return nil, nil
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Error("firebase wiring failed", zap.Error(err))
		return nil, err
	}
	authenticator := auth.NewAuthenticator(verifier)
	return []func(http.Handler) http.Handler{
		authenticator.RequireFirebaseAuth(auth.RoleStaff, auth.RoleAdmin),
	}, nil
}

func buildRouter(
	cfg config.Config,
	logger *zap.Logger,
	provider *pfirestore.Provider,
	container *di.Container,
	psp payments.Provider,
	adminMiddlewares []func(http.Handler) http.Handler,
) http.Handler {
	svc := container.Services

	checkoutHandlers := handlers.NewCheckoutHandlers(svc.Orders, svc.Vouchers, psp)
	webhookHandlers := handlers.NewWebhookHandlers(svc.Orders)
	orderHandlers := handlers.NewOrderHandlers(svc.Orders)
	expenseHandlers := handlers.NewExpenseHandlers(svc.Expenses)
	invoiceHandlers := handlers.NewInvoiceHandlers(svc.Billing)

	admin := func(r chi.Router) {
		orderHandlers.Routes(r)
		expenseHandlers.Routes(r)
		invoiceHandlers.Routes(r)
		if svc.Vouchers != nil {
			handlers.NewVoucherHandlers(svc.Vouchers).Routes(r)
		}
		if svc.Exports != nil {
			handlers.NewExportHandlers(svc.Exports).Routes(r)
		}
	}

	health := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := provider.Client(ctx)
			return err
		}),
	)

	return handlers.NewRouter(
		handlers.WithMiddlewares(
			chimiddleware.RequestID,
			chimiddleware.RealIP,
			chimiddleware.Timeout(60*time.Second),
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithStoreRoutes(checkoutHandlers.Routes),
		handlers.WithWebhookRoutes(webhookHandlers.Routes),
		handlers.WithAdminRoutes(admin, adminMiddlewares...),
	)
}
