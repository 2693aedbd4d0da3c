package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"student-dashboard/internal/app"
	"student-dashboard/internal/config"
	"student-dashboard/internal/hub"
	"student-dashboard/internal/middleware"
	"student-dashboard/internal/server"
	"student-dashboard/internal/workspace"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	backend, err := app.OpenBackend(cfg, logger)
	if err != nil {
		logger.Error("open backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsHub := hub.New()
	registry := workspace.NewRegistry(workspace.Options{
		Provider:    backend.Provider,
		Students:    backend.Students,
		Publisher:   wsHub,
		IdleTimeout: cfg.ClientIdleTimeout(),
		Logger:      logger,
	})
	defer registry.Close()
	go registry.Run(ctx, sweepInterval)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	defer loginLimiter.Stop()

	router := server.NewRouter(server.Deps{
		Registry: registry,
		Hub:      wsHub,
		Cookies: middleware.CookieConfig{
			Secure:      cfg.CookieSecure,
			TokenMaxAge: cfg.TokenExpirySeconds,
		},
		LoginLimiter: loginLimiter,
	})

	if err := server.Run(ctx, cfg, router); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
