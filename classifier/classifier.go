// Package classifier decides which marketplace a URL belongs to and whether
// it points at a product page.
package classifier

import (
	"net/url"
	"regexp"

	"marketpilot/internal/types"
)

// rule binds one marketplace to its host pattern and product-page path pattern.
type rule struct {
	marketplace types.Marketplace
	host        *regexp.Regexp
	productPath *regexp.Regexp
}

// rules is a priority list, not a set: the first match wins, so order must be
// preserved when adding entries.
var rules = []rule{
	{types.MarketplaceAmazon, regexp.MustCompile(`(^|\.)amazon\.(com|co\.uk|de|fr|it|es|pl)$`), regexp.MustCompile(`/(dp|gp/product)/[A-Z0-9]{10}`)},
	{types.MarketplaceAllegro, regexp.MustCompile(`(^|\.)allegro\.pl$`), regexp.MustCompile(`/oferta/`)},
	{types.MarketplaceEbay, regexp.MustCompile(`(^|\.)ebay\.(com|co\.uk|de)$`), regexp.MustCompile(`/itm/`)},
	{types.MarketplaceKaufland, regexp.MustCompile(`(^|\.)kaufland\.de$`), regexp.MustCompile(`/product/`)},
}

// Classify maps a URL to a detection result. Product-page matches are checked
// first across the whole table; a host-only match means "on the marketplace,
// not on a product page". Nil means the URL is none of our business and the
// whole pipeline must no-op.
func Classify(rawURL string) *types.DetectionResult {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := u.Hostname()
	if host == "" {
		return nil
	}

	for _, r := range rules {
		if r.host.MatchString(host) && r.productPath.MatchString(u.Path) {
			return &types.DetectionResult{Marketplace: r.marketplace, IsProductPage: true}
		}
	}
	for _, r := range rules {
		if r.host.MatchString(host) {
			return &types.DetectionResult{Marketplace: r.marketplace, IsProductPage: false}
		}
	}
	return nil
}
