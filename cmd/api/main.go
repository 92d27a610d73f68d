package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gradeidea/roast-service/internal/api"
	"github.com/gradeidea/roast-service/internal/core/service"
	"github.com/gradeidea/roast-service/internal/infrastructure/config"
	mongodb "github.com/gradeidea/roast-service/internal/infrastructure/db/mongo"
	redisdb "github.com/gradeidea/roast-service/internal/infrastructure/db/redis"
	"github.com/gradeidea/roast-service/internal/infrastructure/llm"
	"github.com/gradeidea/roast-service/internal/infrastructure/payments"
	"github.com/gradeidea/roast-service/internal/infrastructure/queue"
	"github.com/gradeidea/roast-service/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(shutdownCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	jobRepo := mongodb.NewJobRepository(db)
	ledgerRepo := mongodb.NewLedgerRepository(db)
	authRepo := mongodb.NewAuthRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"jobs":           jobRepo.EnsureIndexes,
		"token_accounts": ledgerRepo.EnsureIndexes,
		"auth_users":     authRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Warn().Err(err).Str("collection", name).Msg("failed to ensure indexes")
		}
	}

	// --- External collaborators ---
	generator := llm.NewClient(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout(),
		MaxRetries: cfg.LLM.MaxRetries,
	}, log)

	checkout := payments.NewClient(payments.Config{
		BaseURL:       cfg.Payments.BaseURL,
		APIKey:        cfg.Payments.APIKey,
		WebhookSecret: cfg.Payments.WebhookSecret,
		SuccessURL:    cfg.Payments.SuccessURL,
		CancelURL:     cfg.Payments.CancelURL,
	})

	dedup := redisdb.NewDedupChecker(rdb)

	// --- Core services ---
	roastSvc := service.NewRoastService(jobRepo, ledgerRepo, generator, checkout, dedup, log)
	authSvc := service.NewAuthService(authRepo, ledgerRepo, cfg.JWTSecret, 24*time.Hour, cfg.SignupCredit, log)

	dispatcher := queue.NewDispatcher(cfg.CompletionWorkers, roastSvc, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Deps{
		Roasts:     roastSvc,
		Auth:       authSvc,
		Ledger:     ledgerRepo,
		Dispatcher: dispatcher,
		Verifier:   checkout,
		Mongo:      db,
		Redis:      rdb,
		JWTSecret:  cfg.JWTSecret,
		Logger:     log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("roast service listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
