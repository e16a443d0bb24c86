package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mxbot/MXBot_Go/internal/broadcast"
	"github.com/mxbot/MXBot_Go/internal/config"
	"github.com/mxbot/MXBot_Go/internal/database"
	"github.com/mxbot/MXBot_Go/internal/database/postgres"
	"github.com/mxbot/MXBot_Go/internal/discord"
	"github.com/mxbot/MXBot_Go/internal/generic"
	"github.com/mxbot/MXBot_Go/internal/handler"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/pipeline"
	"github.com/mxbot/MXBot_Go/internal/provider/igweb"
	"github.com/mxbot/MXBot_Go/internal/ratelimit"
	"github.com/mxbot/MXBot_Go/internal/server"
	"github.com/mxbot/MXBot_Go/internal/session"
	"github.com/mxbot/MXBot_Go/internal/verification"
	"github.com/mxbot/MXBot_Go/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.NewConfig(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, cfg.Version, cfg.Environment, false))
	slog.Info("Starting MX-Bot", "version", cfg.Version, "environment", cfg.Environment)

	handler.InitValidator()

	ctx := context.Background()

	// Database
	if err := database.Migrate(cfg.GetDBConnString()); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	dbPool, err := database.NewPool(cfg.GetDBConnString(), 10, 30*time.Minute, time.Hour)
	if err != nil {
		slog.Error("Failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	users := postgres.NewUserRepository(dbPool)
	accounts := postgres.NewAccountRepository(dbPool)
	downloads := postgres.NewDownloadRepository(dbPool)
	rateLimits := postgres.NewRateLimitRepository(dbPool)

	// File layout
	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		slog.Error("Failed to create download directory", "error", err, "dir", cfg.DownloadDir)
		os.Exit(1)
	}
	blobStore, err := session.NewFileStore(cfg.SessionDir)
	if err != nil {
		slog.Error("Failed to create session store", "error", err, "dir", cfg.SessionDir)
		os.Exit(1)
	}

	// Provider session: restore from a persisted blob or log in fresh.
	// Either failure is survivable; the operator can upload a blob later.
	sessions := session.NewManager(igweb.NewFactory(), blobStore, cfg.ProviderUsername, cfg.ProviderPassword)
	if err := sessions.Bootstrap(ctx); err != nil {
		slog.Warn("Provider session bootstrap failed", "error", err)
	}

	// Generic backend
	if err := generic.Install(ctx); err != nil {
		slog.Warn("yt-dlp install failed, generic downloads may not work", "error", err)
	}
	genericBackend := generic.NewBackend(cfg.ProbeTimeout, cfg.FetchTimeout)

	limiter := ratelimit.NewService(rateLimits)
	verifier := verification.NewService(accounts, sessions)

	// Chat transport has to exist before the pipeline: deliveries go out
	// through the bot's messenger.
	bot, err := discord.New(discord.Config{Token: cfg.BotToken, AdminUserID: cfg.AdminUserID})
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	pipe := pipeline.NewService(limiter, verifier, sessions, genericBackend, downloads, users, bot.Messenger(), cfg.DownloadDir, cfg.DownloadCooldown)
	broadcaster := broadcast.NewService(users, bot.Messenger(), cfg.BroadcastDelay)

	jobs := worker.NewPool(cfg.Workers, cfg.QueueSize)
	jobs.Start()

	janitor := worker.NewJanitor(cfg.DownloadDir, time.Hour, 24*time.Hour)
	janitor.Start(ctx)

	bot.SetDeps(discord.Deps{
		Pipeline:     pipe,
		Verification: verifier,
		Sessions:     sessions,
		Broadcast:    broadcaster,
		Users:        users,
		Downloads:    downloads,
		Pool:         jobs,
	})

	srv := server.NewServer(cfg.OpsPort, cfg.OpsAPIKey, cfg.TrustedProxies, dbPool, users, downloads, sessions)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
		}
	}()

	// Blocks until SIGINT/SIGTERM.
	if err := bot.Run(); err != nil {
		slog.Error("Bot failed", "error", err)
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("Ops server shutdown failed", "error", err)
	}
	janitor.Stop()
	jobs.Stop()

	slog.Info("Stopped")
}
