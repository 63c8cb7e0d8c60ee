package adapters

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"marketpilot/internal/types"
)

// amazonIDPattern matches the ASIN in /dp/{10-char} and /gp/product/{10-char}
// paths.
var amazonIDPattern = regexp.MustCompile(`/(?:dp|gp/product)/([A-Z0-9]{10})`)

// AmazonAdapter extracts product records from amazon.* product pages.
type AmazonAdapter struct {
	*BaseAdapter
}

// NewAmazonAdapter creates the Amazon extractor.
func NewAmazonAdapter(logger types.Logger) *AmazonAdapter {
	return &AmazonAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Marketplace returns the marketplace this adapter serves.
func (a *AmazonAdapter) Marketplace() types.Marketplace {
	return types.MarketplaceAmazon
}

// Extract reads the Amazon product page snapshot. The ASIN comes from the URL
// path; without it there is no record. Price descends through the offscreen
// span, two legacy price-block ids and the whole-price fragment.
func (a *AmazonAdapter) Extract(doc *goquery.Document, pageURL string) *types.ProductData {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	m := amazonIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return nil
	}

	price := a.FirstText(doc,
		".a-price .a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price-whole",
	)
	brand := cleanAmazonBrand(a.FirstText(doc, "#bylineInfo", "a#brand", "#brand"))

	return &types.ProductData{
		Marketplace: types.MarketplaceAmazon,
		ProductID:   m[1],
		Title:       a.FirstText(doc, "#productTitle", "#title span"),
		Brand:       brand,
		Price:       price,
		URL:         pageURL,
		ImageURL:    a.FirstAttr(doc, "src", "#landingImage", "#imgTagWrapperId img"),
	}
}

// cleanAmazonBrand strips the byline decoration Amazon wraps around the brand
// name ("Visit the X Store", "Brand: X").
func cleanAmazonBrand(s string) string {
	s = strings.TrimPrefix(s, "Visit the ")
	s = strings.TrimPrefix(s, "Brand: ")
	s = strings.TrimSuffix(s, " Store")
	return strings.TrimSpace(s)
}
