package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts, closeStore, err := openAccountStore(ctx, cfg, logger)
	defer closeStore()
	if err != nil {
		logger.Error("failed to open account store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		return err
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger, metrics).RegisterHandlers()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authService := service.NewAuthService(service.AuthDependencies{
		Accounts:     accounts,
		Hasher:       auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:       tokens,
		Mailer:       newMailer(cfg.Mail, logger),
		ResetLimiter: service.NewRedisResetLimiter(redis.Handle(), cfg.Auth.ResetWindow(), cfg.Auth.ResetMaxPerHour),
		Dispatcher:   dispatcher,
		ResetBaseURL: cfg.App.FrontendHost,
		Logger:       logger,
	})
	profileService := service.NewProfileService(accounts, dispatcher, logger)

	dependencies := map[string]handlers.Pinger{"store": accounts}
	if redis != nil {
		dependencies["redis"] = redis
	}

	app := httptransport.NewApp(cfg.App.Name, service.MaxPictureBytes+1<<20, logger, metrics)
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:      cfg.App.RequestTimeout(),
		AllowOrigins: cfg.CORS.AllowOrigins,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Prefix:         cfg.App.APIPrefix,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(profileService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, accounts, logger),
		AuthRateLimit:  httptransport.RateLimit(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:        metrics,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("prefix", cfg.App.APIPrefix))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("graceful shutdown", zap.Error(err))
	}
	return nil
}
