package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/testes001/myfinbank-sub003/config"
	"github.com/testes001/myfinbank-sub003/db"
	"github.com/testes001/myfinbank-sub003/internal/audit"
	authhandler "github.com/testes001/myfinbank-sub003/internal/auth/handler"
	authpg "github.com/testes001/myfinbank-sub003/internal/auth/repository/postgres"
	authredis "github.com/testes001/myfinbank-sub003/internal/auth/repository/redis"
	authservice "github.com/testes001/myfinbank-sub003/internal/auth/service"
	"github.com/testes001/myfinbank-sub003/internal/logging"
	"github.com/testes001/myfinbank-sub003/internal/metrics"
	transferhandler "github.com/testes001/myfinbank-sub003/internal/transfer/handler"
	transferpg "github.com/testes001/myfinbank-sub003/internal/transfer/repository/postgres"
	transferservice "github.com/testes001/myfinbank-sub003/internal/transfer/service"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	clock := clockwork.NewRealClock()

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	redisClient, err := db.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		// Rate limiting fails open without Redis; the service stays up.
		logger.Warn("redis unavailable, rate limiting degraded", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sink := audit.NewAsyncSink(audit.NewZapWriter(logger), audit.AsyncSinkConfig{
		QueueSize: cfg.AuditQueueSize,
	}, logger)
	defer sink.Close()

	authRepo := authpg.NewRepository(pool)
	ledger := authredis.NewAttemptLedger(redisClient, clock, 24*time.Hour)

	rateCfg := authservice.DefaultRateLimitConfig()
	rateCfg.MaxAttempts = cfg.LoginMaxAttempts
	rateCfg.LockoutWindow = time.Duration(cfg.LockoutWindowMin) * time.Minute
	limiter := authservice.NewRateLimiter(ledger, sink, rateCfg, clock, logger)

	tokenService := authservice.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessExpiryMin, cfg.RefreshExpiryMin, clock)
	authSvc := authservice.NewAuthService(authRepo, tokenService, limiter, sink, clock, logger, cfg.MaxActiveSessions)

	accountRepo := transferpg.NewAccountRepository(pool)
	txnRepo := transferpg.NewTransactionRepository(pool)
	engine := transferservice.NewTransferEngine(accountRepo, txnRepo, sink, clock, logger,
		transferservice.WithRetryPolicy(cfg.TransferRetries, 10*time.Millisecond))

	authHandler := authhandler.NewAuthHandler(authSvc, tokenService, m)
	transferHandler := transferhandler.NewTransferHandler(engine, m)

	app := fiber.New()
	authhandler.RegisterRoutes(app, authHandler, transferHandler, registry)

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
