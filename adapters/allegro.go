package adapters

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"marketpilot/internal/types"
)

// allegroTrailingID matches the numeric offer id appended after the final
// hyphen of an /oferta/ slug.
var allegroTrailingID = regexp.MustCompile(`-(\d+)$`)

// allegroDigitRun matches any run of at least 8 digits, the fallback when the
// slug carries no trailing id.
var allegroDigitRun = regexp.MustCompile(`\d{8,}`)

// AllegroAdapter extracts product records from allegro.pl offer pages.
type AllegroAdapter struct {
	*BaseAdapter
}

// NewAllegroAdapter creates the Allegro extractor.
func NewAllegroAdapter(logger types.Logger) *AllegroAdapter {
	return &AllegroAdapter{BaseAdapter: NewBaseAdapter(logger)}
}

// Marketplace returns the marketplace this adapter serves.
func (a *AllegroAdapter) Marketplace() types.Marketplace {
	return types.MarketplaceAllegro
}

// Extract reads the Allegro offer page snapshot. The offer id is the numeric
// suffix after the slug's final hyphen; failing that, the last run of at
// least 8 digits anywhere in the path.
func (a *AllegroAdapter) Extract(doc *goquery.Document, pageURL string) *types.ProductData {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	id := allegroOfferID(u.Path)
	if id == "" {
		return nil
	}

	return &types.ProductData{
		Marketplace: types.MarketplaceAllegro,
		ProductID:   id,
		Title: a.FirstText(doc,
			"h1[itemprop='name']",
			"div[data-box-name='showoffer.productHeader'] h1",
			"h1",
		),
		Brand: a.FirstText(doc,
			"a[data-analytics-click-label='brandZone']",
			"div[data-box-name='Parameters'] a",
		),
		Price: a.FirstText(doc,
			"div[data-box-name='Price'] span[aria-label]",
			"span[data-testid='price']",
			"div[data-box-name='BuyBox'] span[aria-label]",
		),
		URL: pageURL,
		ImageURL: a.FirstAttr(doc, "src",
			"img[data-testid='gallery-main-image']",
			"div[data-box-name='Gallery'] img",
		),
	}
}

// allegroOfferID resolves the offer id from an /oferta/ path.
func allegroOfferID(path string) string {
	path = strings.TrimSuffix(path, "/")
	if m := allegroTrailingID.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	runs := allegroDigitRun.FindAllString(path, -1)
	if len(runs) == 0 {
		return ""
	}
	return runs[len(runs)-1]
}
