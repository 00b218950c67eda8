package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamline/backend/internal/config"
	"streamline/backend/internal/db"
	healthhandler "streamline/backend/internal/health/handler"
	identityservice "streamline/backend/internal/identity/service"
	"streamline/backend/internal/logging"
	"streamline/backend/internal/security"
	"streamline/backend/internal/server"
	"streamline/backend/internal/server/middleware"
	"streamline/backend/internal/telemetry"
	telemetryotel "streamline/backend/internal/telemetry/otel"
	userrepo "streamline/backend/internal/user/repository"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		logger.Error("telemetry.init.failed", "err", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	logger = logging.Tee(logger, telemetryotel.NewSlogHandler(providers.LoggerProvider, logging.ParseLevel(cfg.LogLevel)))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var (
		users  identityservice.UserRepo
		pinger healthhandler.Pinger
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.OpenWithRetry(ctx, cfg.DatabaseURL, uint64(cfg.DBConnectAttempts))
		if err != nil {
			logger.Error("db.open.failed", "err", err)
			os.Exit(1)
		}
		defer func(conn *sql.DB) { _ = conn.Close() }(conn)
		users = userrepo.NewPostgresRepository(conn)
		pinger = conn
		logger.Info("db.connected", "store", "postgres")
	} else {
		users = userrepo.NewMemoryRepository()
		logger.Warn("db.not_configured", "store", "memory", "hint", "set DATABASE_URL to persist users")
	}

	metrics, err := telemetry.NewAuthMetrics(nil)
	if err != nil {
		logger.Error("metrics.init.failed", "err", err)
		os.Exit(1)
	}
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(
		[]byte(cfg.AccessTokenSecret),
		[]byte(cfg.RefreshTokenSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	auth := identityservice.NewAuthService(users, hasher, tokens, logger, metrics)

	srv := server.New(cfg.HTTPAddr, server.NewRouter(server.Deps{
		Auth:          auth,
		Authenticator: middleware.NewAuthenticator(tokens, users, metrics),
		HealthPinger:  pinger,
		Logger:        logger,
		Production:    cfg.IsProduction(),
		CORSOrigin:    cfg.CORSOrigin,
		ServiceName:   cfg.ServiceName,
	}))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http.server.listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http.server.failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logger.Info("http.server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http.server.shutdown.failed", "err", err)
	}
	logger.Info("http.server.stopped")
}
