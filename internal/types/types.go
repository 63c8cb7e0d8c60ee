package types

import "time"

// Marketplace identifies one of the supported marketplaces. The set is closed:
// extractor and classifier behavior is defined per member, nothing else.
type Marketplace string

const (
	MarketplaceAmazon   Marketplace = "amazon"
	MarketplaceAllegro  Marketplace = "allegro"
	MarketplaceEbay     Marketplace = "ebay"
	MarketplaceKaufland Marketplace = "kaufland"
)

// ProductData is the canonical record extracted from a product page.
// Title, brand and price stay display strings; source formatting varies per
// locale and consumers only need text at this layer. A ProductData always has
// a non-empty ProductID: extractors that cannot resolve one return no record.
type ProductData struct {
	Marketplace Marketplace `json:"marketplace"`
	ProductID   string      `json:"product_id"`
	Title       string      `json:"title"`
	Brand       string      `json:"brand"`
	Price       string      `json:"price"`
	URL         string      `json:"url"`
	ImageURL    string      `json:"image_url,omitempty"`
}

// DetectionResult is the outcome of classifying a URL. It is ephemeral and
// recomputed on every navigation; only the ProductData derived from it is kept.
type DetectionResult struct {
	Marketplace   Marketplace `json:"marketplace"`
	IsProductPage bool        `json:"is_product_page"`
}

// TrackedProduct is a product the user explicitly asked to follow.
type TrackedProduct struct {
	ID          string      `json:"id"`
	Marketplace Marketplace `json:"marketplace"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	URL         string      `json:"url"`
	LastPrice   string      `json:"last_price,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Alert records a detected price change on a tracked product.
type Alert struct {
	ID          string      `json:"id"`
	Marketplace Marketplace `json:"marketplace"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	OldPrice    string      `json:"old_price"`
	NewPrice    string      `json:"new_price"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Keyword is one search phrase with its volume, as fed to the optimizer.
type Keyword struct {
	Phrase       string `json:"phrase"`
	SearchVolume int    `json:"search_volume"`
}

// OptimizeRequest is the payload forwarded to the listing-optimization API.
type OptimizeRequest struct {
	ProductTitle string      `json:"product_title"`
	Brand        string      `json:"brand"`
	Keywords     []Keyword   `json:"keywords"`
	Marketplace  Marketplace `json:"marketplace"`
}

// Listing is the optimized listing content returned by the API.
type Listing struct {
	Title           string   `json:"title"`
	BulletPoints    []string `json:"bullet_points"`
	Description     string   `json:"description"`
	BackendKeywords []string `json:"backend_keywords"`
}

// RankingJuice is the API's score for the optimized listing.
type RankingJuice struct {
	Score float64 `json:"score"`
}

// OptimizeResult bundles the optimized listing with its score.
type OptimizeResult struct {
	Listing      Listing      `json:"listing"`
	RankingJuice RankingJuice `json:"ranking_juice"`
}

// TrackRequest is the payload of a TRACK_PRODUCT message.
type TrackRequest struct {
	Marketplace Marketplace `json:"marketplace"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	URL         string      `json:"url"`
}

// Config holds settings for plain-HTTP page fetching (poller side).
type Config struct {
	RequestDelay time.Duration
	MaxRetries   int
	Timeout      time.Duration
	UserAgent    string
}

// DefaultConfig returns the default fetch configuration.
func DefaultConfig() *Config {
	return &Config{
		RequestDelay: 1 * time.Second,
		MaxRetries:   3,
		Timeout:      30 * time.Second,
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
