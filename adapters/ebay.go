package adapters

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"marketpilot/internal/types"
)

// ebayIDPattern matches the numeric item id in /itm/{digits}, tolerating an
// optional slug segment before it.
var ebayIDPattern = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d+)`)

// ebayPriceText is the shape of a standalone price string when scanning text
// nodes as a last resort.
var ebayPriceText = regexp.MustCompile(`^(US\s*\$|EUR|£|PLN)\s*[\d,.]+$`)

// maxScannedPriceLen caps the text-node scan so long unrelated text cannot be
// mistaken for a price.
const maxScannedPriceLen = 25

// EbayAdapter extracts product records from ebay.* product pages.
type EbayAdapter struct {
	*BaseAdapter
}

// NewEbayAdapter creates the eBay extractor.
func NewEbayAdapter(logger types.Logger) *EbayAdapter {
	return &EbayAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Marketplace returns the marketplace this adapter serves.
func (e *EbayAdapter) Marketplace() types.Marketplace {
	return types.MarketplaceEbay
}

// Extract reads the eBay product page snapshot. Without a numeric item id in
// the path there is no record.
func (e *EbayAdapter) Extract(doc *goquery.Document, pageURL string) *types.ProductData {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	m := ebayIDPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return nil
	}

	title := e.FirstText(doc,
		"h1.x-item-title__mainTitle .ux-textspans",
		"h1.x-item-title__mainTitle",
		"#itemTitle",
	)
	// Legacy item pages prefix the h1 with "Details about  ".
	title = strings.TrimSpace(strings.TrimPrefix(title, "Details about "))

	price := e.FirstText(doc,
		".x-price-primary .ux-textspans",
		".x-price-primary",
		"#prcIsum",
		"#mm-saleDscPrc",
	)
	if price == "" {
		price = e.scanForPrice(doc)
	}
	price = dedupeDoubledPrice(price)

	return &types.ProductData{
		Marketplace: types.MarketplaceEbay,
		ProductID:   m[1],
		Title:       title,
		Brand: e.FirstText(doc,
			".ux-labels-values--brand .ux-labels-values__values",
			"[itemprop='brand']",
		),
		Price: price,
		URL:   pageURL,
		ImageURL: e.FirstAttr(doc, "src",
			".ux-image-carousel-item img",
			"#icImg",
		),
	}
}

// scanForPrice walks all span/div text looking for something shaped like a
// standalone price. Only short strings qualify.
func (e *EbayAdapter) scanForPrice(doc *goquery.Document) string {
	var found string
	doc.Find("span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := NormalizeSpace(s.Text())
		if text == "" || len(text) >= maxScannedPriceLen {
			return true
		}
		if ebayPriceText.MatchString(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

// dedupeDoubledPrice undoes an eBay DOM quirk where the price text appears
// twice back-to-back ("US $24.14US $24.14"). If splitting the string exactly
// in half yields two identical halves, only the first is kept.
func dedupeDoubledPrice(s string) string {
	if n := len(s); n > 0 && n%2 == 0 {
		half := n / 2
		if s[:half] == s[half:] {
			return s[:half]
		}
	}
	return s
}
