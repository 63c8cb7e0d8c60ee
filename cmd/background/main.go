package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"marketpilot/adapters"
	"marketpilot/background"
	"marketpilot/config"
	"marketpilot/internal/types"
	"marketpilot/storage"
	"marketpilot/utils"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	store := storage.New(cfg.Storage.Path, logger)
	registry := adapters.NewRegistry(logger)

	optimizer := background.NewOptimizer(cfg.Optimize.BaseURL, cfg.Optimize.APIKey, cfg.Optimize.PerMinute, logger)

	service := background.NewService(store, optimizer, logger)
	router := service.Router(cfg.Server.Environment, cfg.Server.AllowedOrigins)

	fetchConfig := &types.Config{
		RequestDelay: cfg.Fetch.RequestDelay,
		MaxRetries:   cfg.Fetch.MaxRetries,
		Timeout:      cfg.Fetch.Timeout,
		UserAgent:    cfg.Fetch.UserAgent,
	}
	poller := background.NewPoller(store, registry, utils.NewHTTPClient(fetchConfig, logger), cfg.Poller.Interval, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go poller.Start(ctx)

	logger.Infof("Background service listening on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
