package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"marketpilot/adapters"
	"marketpilot/bus"
	"marketpilot/config"
	"marketpilot/content"
	"marketpilot/overlay"
	"marketpilot/storage"
	"marketpilot/utils"
	"marketpilot/watcher"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	var (
		startURL = flag.String("url", "", "Page to open the browser session at")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := newLogger(*verbose)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if *startURL == "" {
		*startURL = cfg.Content.StartURL
	}
	if *startURL == "" {
		logger.Fatal("Either --url or MARKETPILOT_CONTENT_START_URL is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := utils.NewSession(ctx, *startURL, 30*time.Second, logger)
	if err != nil {
		logger.Fatalf("Failed to open browser session: %v", err)
	}
	defer session.Close()

	busClient, err := bus.Dial(ctx, cfg.Bus.URL, cfg.Bus.RequestTimeout, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to background service: %v", err)
	}
	defer busClient.Close()

	store := storage.New(cfg.Storage.Path, logger)
	registry := adapters.NewRegistry(logger)
	badge := overlay.NewController(session, logger)

	pipeline := content.New(session, registry, store, busClient, badge, logger)

	// Overlay click opens the popup for whatever product the pipeline last
	// persisted.
	err = session.ExposeClick(overlay.ClickBinding, func() {
		product, err := store.CurrentProduct()
		if err != nil || product == nil {
			logger.Warnf("Overlay clicked with no current product: %v", err)
			return
		}
		if err := busClient.Notify(bus.OpenPopup, product); err != nil {
			logger.Errorf("Failed to request popup: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to bind overlay click: %v", err)
	}

	mutations := session.WatchMutations(ctx, cfg.Content.MutationPoll)

	w := watcher.New(session, cfg.Content.SettleDelay, pipeline.Run, logger)
	logger.Infof("Watching %s", *startURL)
	w.Start(ctx, mutations)
}

func newLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}
