// Package main is the entry point for the Tenge Cash Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"gitlab.com/yelinaung/tengecash-bot/internal/auth"
	"gitlab.com/yelinaung/tengecash-bot/internal/bot"
	"gitlab.com/yelinaung/tengecash-bot/internal/config"
	"gitlab.com/yelinaung/tengecash-bot/internal/conversation"
	"gitlab.com/yelinaung/tengecash-bot/internal/database"
	"gitlab.com/yelinaung/tengecash-bot/internal/logger"
	"gitlab.com/yelinaung/tengecash-bot/internal/repository"
	"gitlab.com/yelinaung/tengecash-bot/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// stateSweepInterval is how often expired conversation states are dropped.
const stateSweepInterval = time.Minute

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("tengecash-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetFormat(cfg.LogFormat)
	logger.SetLevel(cfg.LogLevel)
	if err := logger.SetHashSalt(cfg.LogHashSalt); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set log hash salt")
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg, version)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	logger.Log.Info().Msg("Database initialized successfully")

	accounts := repository.NewAccountRepository(pool)
	engine := conversation.New(cfg, conversation.Stores{
		Accounts:   accounts,
		Auth:       auth.NewAuthenticator(accounts),
		Categories: repository.NewCategoryRepository(pool),
		Sections:   repository.NewSectionRepository(pool),
		Expenses:   repository.NewExpenseRepository(pool),
	}, conversation.NewStateStore(cfg.ConversationTTL))

	telegramBot, err := bot.New(cfg, engine)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	fmt.Println("Бот запущен...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telegramBot.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return engine.States().Run(ctx, stateSweepInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("Shutdown with error")
	}
	logger.Log.Info().Msg("Shutting down...")
}
