package adapters

import (
	"github.com/PuerkitoBio/goquery"
	"marketpilot/internal/types"
)

// Extractor reads a product-page DOM snapshot and produces a normalized
// record. It is called only after classification confirmed a product page.
// Implementations never return an error and never panic; nil means the page
// carried no identifiable product.
type Extractor interface {
	Marketplace() types.Marketplace
	Extract(doc *goquery.Document, pageURL string) *types.ProductData
}

// Registry maps each marketplace to its extractor strategy. Adding a
// marketplace means registering one more implementation against the enum.
type Registry struct {
	extractors map[types.Marketplace]Extractor
	logger     types.Logger
}

// NewRegistry creates a registry with all built-in marketplace extractors.
func NewRegistry(logger types.Logger) *Registry {
	r := &Registry{
		extractors: make(map[types.Marketplace]Extractor),
		logger:     logger,
	}
	r.Register(NewAmazonAdapter(logger))
	r.Register(NewAllegroAdapter(logger))
	r.Register(NewEbayAdapter(logger))
	r.Register(NewKauflandAdapter(logger))
	return r
}

// Register adds or replaces the extractor for its marketplace.
func (r *Registry) Register(e Extractor) {
	r.extractors[e.Marketplace()] = e
}

// Get returns the extractor registered for a marketplace.
func (r *Registry) Get(m types.Marketplace) (Extractor, bool) {
	e, ok := r.extractors[m]
	return e, ok
}

// Extract dispatches to the marketplace's extractor. Nil for an unknown
// marketplace or an unidentifiable page.
func (r *Registry) Extract(m types.Marketplace, doc *goquery.Document, pageURL string) *types.ProductData {
	e, ok := r.extractors[m]
	if !ok {
		r.logger.Warnf("no extractor registered for marketplace %q", m)
		return nil
	}
	return e.Extract(doc, pageURL)
}
