package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hms/hospital-system/internal/api"
	"github.com/hms/hospital-system/internal/infrastructure/config"
	mongodb "github.com/hms/hospital-system/internal/infrastructure/db/mongo"
	redisdb "github.com/hms/hospital-system/internal/infrastructure/db/redis"
	"github.com/hms/hospital-system/internal/infrastructure/notification"
	"github.com/hms/hospital-system/internal/infrastructure/queue"
	"github.com/hms/hospital-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongodb index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Email delivery ---
	smtpNotifier := notification.NewSMTPNotifier(notification.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.AppBaseURL,
	}, log)

	dispatcher := queue.NewDispatcher(cfg.MailWorkers, smtpNotifier, log)
	dispatcher.Start(ctx)
	notifier := queue.NewAsyncNotifier(dispatcher)

	// --- HTTP server ---
	e := api.NewRouter(db, rdb, notifier, api.RouterConfig{
		JWTSecret:        cfg.JWTSecret,
		JWTTTL:           cfg.JWTTTL,
		ResetTokenTTL:    cfg.ResetTokenTTL,
		ResetThrottleTTL: cfg.ResetThrottleTTL,
	}, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
