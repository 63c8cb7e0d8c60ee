package background

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/oklog/ulid/v2"
	"marketpilot/adapters"
	"marketpilot/internal/types"
	"marketpilot/storage"
	"marketpilot/utils"
)

// Poller re-checks tracked product prices on an interval and records an
// alert whenever the display string changed. It reuses the marketplace
// extractors against plain-HTTP page fetches; a product whose page cannot be
// fetched or parsed is skipped until the next cycle.
type Poller struct {
	store    *storage.Bridge
	registry *adapters.Registry
	fetcher  *utils.HTTPClient
	interval time.Duration
	logger   types.Logger
}

// NewPoller creates a poller. A non-positive interval disables it.
func NewPoller(store *storage.Bridge, registry *adapters.Registry, fetcher *utils.HTTPClient, interval time.Duration, logger types.Logger) *Poller {
	return &Poller{
		store:    store,
		registry: registry,
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks until ctx ends, running one check cycle per interval.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info("price poller disabled")
		return
	}
	p.logger.Infof("price poller running every %s", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CheckAll(ctx)
		}
	}
}

// CheckAll runs one cycle over the whole tracked list and persists the
// updated last-seen prices.
func (p *Poller) CheckAll(ctx context.Context) {
	tracked, err := p.store.Tracked()
	if err != nil {
		p.logger.Warnf("failed to read tracked products: %v", err)
		return
	}
	if len(tracked) == 0 {
		return
	}

	changed := false
	for i := range tracked {
		if p.checkOne(ctx, &tracked[i]) {
			changed = true
		}
	}
	if changed {
		if err := p.store.SetTracked(tracked); err != nil {
			p.logger.Warnf("failed to persist tracked products: %v", err)
		}
	}
}

// checkOne refreshes one tracked product. Reports whether its record changed.
func (p *Poller) checkOne(ctx context.Context, tp *types.TrackedProduct) bool {
	body, err := p.fetcher.Get(ctx, tp.URL)
	if err != nil {
		p.logger.Warnf("failed to fetch %s: %v", tp.URL, err)
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		p.logger.Warnf("failed to parse %s: %v", tp.URL, err)
		return false
	}

	product := p.registry.Extract(tp.Marketplace, doc, tp.URL)
	if product == nil || product.Price == "" {
		p.logger.Debugf("no price found for tracked product %s", tp.ProductID)
		return false
	}
	if product.Price == tp.LastPrice {
		return false
	}

	// First observation just seeds the baseline; changes after that alert.
	if tp.LastPrice != "" {
		alert := types.Alert{
			ID:          ulid.Make().String(),
			Marketplace: tp.Marketplace,
			ProductID:   tp.ProductID,
			ProductName: tp.ProductName,
			OldPrice:    tp.LastPrice,
			NewPrice:    product.Price,
			CreatedAt:   time.Now().UTC(),
		}
		if err := p.store.AddAlert(alert); err != nil {
			p.logger.Warnf("failed to record alert for %s: %v", tp.ProductID, err)
		} else {
			p.logger.Infof("price change on %s: %s -> %s", tp.ProductID, tp.LastPrice, product.Price)
		}
	}
	tp.LastPrice = product.Price
	return true
}
