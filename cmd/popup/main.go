package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"marketpilot/bus"
	"marketpilot/config"
	"marketpilot/internal/types"
	"marketpilot/popup"
	"marketpilot/storage"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	var (
		optimizeFlag = flag.Bool("optimize", false, "Optimize the current product's listing")
		trackFlag    = flag.Bool("track", false, "Start tracking the current product's price")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := newLogger(*verbose)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	busClient, err := bus.Dial(ctx, cfg.Bus.URL, cfg.Bus.RequestTimeout, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to background service: %v", err)
	}
	defer busClient.Close()

	store := storage.New(cfg.Storage.Path, logger)

	p := popup.New(busClient, store, logger)
	view := p.Open(ctx)
	view.Render(os.Stdout)

	if *optimizeFlag {
		if view.CurrentProduct == nil {
			logger.Fatal("No current product to optimize")
		}
		result, inlineErr := p.Optimize(ctx, &types.OptimizeRequest{
			ProductTitle: view.CurrentProduct.Title,
			Brand:        view.CurrentProduct.Brand,
			Marketplace:  view.CurrentProduct.Marketplace,
		})
		if inlineErr != "" {
			fmt.Printf("optimize failed: %s\n", inlineErr)
			return
		}
		fmt.Printf("Optimized title: %s\n", result.Listing.Title)
		for _, bp := range result.Listing.BulletPoints {
			fmt.Printf("  - %s\n", bp)
		}
		fmt.Printf("Ranking juice: %.1f\n", result.RankingJuice.Score)
	}

	if *trackFlag {
		if view.CurrentProduct == nil {
			logger.Fatal("No current product to track")
		}
		tracked, err := p.Track(ctx, view.CurrentProduct)
		if err != nil {
			logger.Fatalf("Failed to track product: %v", err)
		}
		fmt.Printf("Tracking %s (id %s)\n", tracked.ProductName, tracked.ID)
	}
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
