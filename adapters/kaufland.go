package adapters

import (
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"marketpilot/internal/types"
)

// kauflandIDPattern matches the numeric product id in /product/{digits} paths.
var kauflandIDPattern = regexp.MustCompile(`/product/(\d+)`)

// KauflandAdapter extracts product records from kaufland.de product pages.
type KauflandAdapter struct {
	*BaseAdapter
}

// NewKauflandAdapter creates the Kaufland extractor.
func NewKauflandAdapter(logger types.Logger) *KauflandAdapter {
	return &KauflandAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Marketplace returns the marketplace this adapter serves.
func (k *KauflandAdapter) Marketplace() types.Marketplace {
	return types.MarketplaceKaufland
}

// Extract reads the Kaufland product page snapshot. No /product/{digits} path
// means no record.
func (k *KauflandAdapter) Extract(doc *goquery.Document, pageURL string) *types.ProductData {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	m := kauflandIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return nil
	}

	return &types.ProductData{
		Marketplace: types.MarketplaceKaufland,
		ProductID:   m[1],
		Title:       k.FirstText(doc, "h1.rd-title", "h1"),
		Brand: k.FirstText(doc,
			".rd-manufacturer a",
			".rd-manufacturer",
		),
		Price: k.FirstText(doc,
			".rd-buy-box__price",
			".rd-price",
		),
		URL: pageURL,
		ImageURL: k.FirstAttr(doc, "src",
			".rd-image-gallery img",
			"img.rd-picture__image",
		),
	}
}
