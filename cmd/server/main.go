package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mafia/internal/app"
	"mafia/internal/config"
	httpTransport "mafia/internal/transport/http"
	"mafia/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting mafia game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"minPlayers", cfg.Game.MinPlayers,
		"maxPlayers", cfg.Game.MaxPlayers,
	)

	if cfg.IsProduction() && cfg.Server.PublicURL == "" {
		logger.Warn("PUBLIC_URL is not set, invite links will use the request host")
	}

	// Wire the room coordinator to the WebSocket gateway
	gateway := ws.NewGateway(logger)
	registry := app.NewRegistry(cfg.Rules(), logger)
	coordinator := app.NewCoordinator(registry, gateway, logger, app.Options{
		ChatMaxLength: cfg.Chat.MaxLength,
		RoomExpiry:    cfg.Janitor.RoomExpiry,
		PlayerGrace:   cfg.Janitor.PlayerGrace,
		Limiter:       app.NewChatLimiter(cfg.Chat.RateCount, cfg.Chat.RateWindow),
		Scheduler:     app.NewTimerScheduler(),
	})
	janitor := app.NewJanitor(coordinator, cfg.Janitor.Interval, logger)

	// Create HTTP server
	wsHandler := ws.NewHandler(coordinator, gateway, logger)
	server := httpTransport.NewServer(cfg, coordinator, wsHandler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return coordinator.Run(ctx)
	})

	g.Go(func() error {
		return janitor.Run(ctx)
	})

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		gateway.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
