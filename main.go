package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mnemonic-no/grafeo-sub002/pkg/auth"
	"github.com/mnemonic-no/grafeo-sub002/pkg/config"
	"github.com/mnemonic-no/grafeo-sub002/pkg/database"
	"github.com/mnemonic-no/grafeo-sub002/pkg/handlers"
	"github.com/mnemonic-no/grafeo-sub002/pkg/logging"
	"github.com/mnemonic-no/grafeo-sub002/pkg/metrics"
	"github.com/mnemonic-no/grafeo-sub002/pkg/middleware"
	"github.com/mnemonic-no/grafeo-sub002/pkg/repositories"
	"github.com/mnemonic-no/grafeo-sub002/pkg/retry"
	"github.com/mnemonic-no/grafeo-sub002/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Addr()),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Bool("redis", cfg.Redis.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.String("error", logging.SanitizeError(err)))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Startup dependency not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("error", logging.SanitizeError(err)))
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:             cfg.Database.URL(),
			MaxConnections:  cfg.Database.MaxConnections,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, "migrations", logger); err != nil {
		return err
	}

	dependencies := map[string]handlers.Pinger{"postgres": db}

	var typeCache services.TypeCache
	if cfg.Redis.Enabled() {
		client, err := retry.DoWithResult(ctx, retryCfg, func() (*redis.Client, error) {
			return database.NewRedisClient(ctx, &cfg.Redis)
		})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		typeCache = services.NewRedisTypeCache(client)
		dependencies["redis"] = handlers.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		return err
	}
	defer jwksClient.Close()
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(jwksClient, logger), logger)

	recorder := metrics.NewRecorder()
	typeResolver := services.NewTypeResolver(repositories.NewTypeRepository(), typeCache, cfg.Traverse.TypeCacheTTL, logger)
	traverseService := services.NewTraverseService(
		repositories.NewObjectFactRepository(logger),
		typeResolver,
		cfg.Traverse,
		recorder,
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, dependencies, logger).RegisterRoutes(mux)
	handlers.NewTraverseHandler(traverseService, recorder, logger).
		RegisterRoutes(mux, authMiddleware, database.WithScope(db, logger))
	handlers.NewMetricsHandler(recorder.Handler()).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting grafeo", zap.String("addr", server.Addr), zap.Bool("tls", cfg.TLSEnabled()))
		if cfg.TLSEnabled() {
			errCh <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
