package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"canteen-planner/internal/app"
	"canteen-planner/internal/config"
	"canteen-planner/internal/logging"
	"canteen-planner/internal/server"
	"canteen-planner/internal/telegram"

	"github.com/rs/zerolog/log"
)

const reapInterval = time.Minute

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init("canteen-server", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Catalog, database, exports and sessions
	application, db, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize planner")
	}
	defer db.Close()

	opts := server.Options{
		Addr:        ":" + cfg.Port,
		DataPath:    filepath.Dir(cfg.DatabasePath),
		CORSOrigins: cfg.CORSOrigins,
		DB:          db,
	}

	// 3. Optional Telegram shell on the same listener
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, application)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		opts.Webhook = bot
		opts.WebhookPath = "/webhook"
	}

	go application.ReapLoop(ctx, reapInterval)

	// 4. Serve until SIGINT/SIGTERM
	if err := server.New(application, opts).Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		stop()
		db.Close()
		os.Exit(1)
	}
	log.Info().Msg("server exiting")
}
