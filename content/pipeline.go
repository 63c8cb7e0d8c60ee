// Package content orchestrates one classify, extract, persist, announce and
// overlay cycle against the live page. It is the piece the navigation watcher
// re-runs on every settled SPA navigation.
package content

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"marketpilot/adapters"
	"marketpilot/bus"
	"marketpilot/classifier"
	"marketpilot/internal/types"
	"marketpilot/storage"
)

// Snapshot supplies the live page's URL and a DOM snapshot taken at call
// time. Extraction is synchronous against that snapshot; overlapping cycles
// each take their own.
type Snapshot interface {
	CurrentURL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
}

// Announcer posts fire-and-forget notifications to the background. Consumers
// must tolerate duplicates: overlapping watcher re-runs announce
// independently, and records overwrite rather than merge.
type Announcer interface {
	Notify(typ bus.MessageType, payload interface{}) error
}

// Overlay renders the on-page affordance for an extracted product.
type Overlay interface {
	Render(ctx context.Context, product *types.ProductData) error
}

// Pipeline runs the content side of the system. Every failure inside a cycle
// is recovered locally; nothing here may ever take down the host page.
type Pipeline struct {
	page     Snapshot
	registry *adapters.Registry
	store    *storage.Bridge
	announce Announcer
	overlay  Overlay
	logger   types.Logger
}

// New wires a pipeline. store, announce and overlay may each be nil, which
// skips that step (used by tests and the poller's re-extraction path).
func New(page Snapshot, registry *adapters.Registry, store *storage.Bridge, announce Announcer, overlay Overlay, logger types.Logger) *Pipeline {
	return &Pipeline{
		page:     page,
		registry: registry,
		store:    store,
		announce: announce,
		overlay:  overlay,
		logger:   logger,
	}
}

// Run executes one full cycle. A classification miss is a valid "do nothing"
// outcome, an extraction miss means "no product on this page"; neither is an
// error. The produced record overwrites whatever was stored before.
func (p *Pipeline) Run(ctx context.Context) {
	pageURL, err := p.page.CurrentURL(ctx)
	if err != nil {
		p.logger.Warnf("failed to read page url: %v", err)
		return
	}

	detection := classifier.Classify(pageURL)
	if detection == nil {
		p.logger.Debugf("off-marketplace page, nothing to do: %s", pageURL)
		return
	}
	if !detection.IsProductPage {
		p.logger.Debugf("%s page but not a product page: %s", detection.Marketplace, pageURL)
		return
	}

	html, err := p.page.HTML(ctx)
	if err != nil {
		p.logger.Warnf("failed to snapshot page: %v", err)
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Warnf("failed to parse page snapshot: %v", err)
		return
	}

	product := p.registry.Extract(detection.Marketplace, doc, pageURL)
	if product == nil {
		p.logger.Debugf("no extractable product on %s", pageURL)
		return
	}
	p.logger.Infof("detected %s product %s: %s", product.Marketplace, product.ProductID, product.Title)

	if p.store != nil {
		if err := p.store.SetCurrentProduct(product); err != nil {
			p.logger.Warnf("failed to persist current product: %v", err)
		}
	}
	if p.announce != nil {
		if err := p.announce.Notify(bus.ProductDetected, product); err != nil {
			p.logger.Warnf("failed to announce product: %v", err)
		}
	}
	if p.overlay != nil {
		if err := p.overlay.Render(ctx, product); err != nil {
			p.logger.Warnf("failed to render overlay: %v", err)
		}
	}
}
