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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/justsurfingit/Application-Tracker/internal/app"
	"github.com/justsurfingit/Application-Tracker/internal/config"
	"github.com/justsurfingit/Application-Tracker/internal/handlers"
	"github.com/justsurfingit/Application-Tracker/internal/logging"
)

func main() {
	// 1. Load Environment Variables (optional .env for local dev)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal("Error loading .env file: ", err)
	}

	// 2. Configuration & Logging
	path := os.Getenv("TRACKER_SECRETS")
	cfg, err := config.Load(path, path != "")
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatal("Error creating logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Core Services (model, sheet, journal)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	// 4. Initialize Email Watcher
	if cfg.InboxEnabled {
		watcher, err := a.InboxWatcher(ctx, nil, nil)
		if err != nil {
			logger.Warn("inbox watcher not started", zap.Error(err))
		} else {
			watcher.StartWatcher(ctx)
		}
	}

	// 5. Initialize Handlers
	apiHandler := handlers.NewApplicationHandler(a.Tracker, cfg.RequestTimeout, logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Tracker, cfg.RequestTimeout, logger)

	// 6. Setup Router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handlers.NewRouter(apiHandler, dashboardHandler, gin.Recovery(), handlers.RequestLogger(logger))

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
