package adapters

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketpilot/internal/types"
)

func TestAmazonExtract_CurrentLayout(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<span id="productTitle"> Widget </span>
		<div id="bylineInfo">Visit the Acme Store</div>
		<span class="a-price"><span class="a-offscreen">$19.99</span></span>
		<img id="landingImage" src="https://images.example/widget.jpg">
	</body></html>`)

	adapter := NewAmazonAdapter(logrus.New())
	product := adapter.Extract(doc, "https://www.amazon.com/dp/B000000000")

	require.NotNil(t, product)
	assert.Equal(t, types.MarketplaceAmazon, product.Marketplace)
	assert.Equal(t, "B000000000", product.ProductID)
	assert.Equal(t, "Widget", product.Title)
	assert.Equal(t, "$19.99", product.Price)
	assert.Equal(t, "Acme", product.Brand)
	assert.Equal(t, "https://images.example/widget.jpg", product.ImageURL)
}

func TestAmazonExtract_GpProductPath(t *testing.T) {
	doc := parseHTML(t, "<html><body></body></html>")
	adapter := NewAmazonAdapter(logrus.New())

	product := adapter.Extract(doc, "https://www.amazon.de/gp/product/B07XYZ1234?th=1")

	require.NotNil(t, product)
	assert.Equal(t, "B07XYZ1234", product.ProductID)
}

func TestAmazonExtract_LegacyPriceBlocks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"ourprice block", `<span id="priceblock_ourprice">EUR 12,50</span>`, "EUR 12,50"},
		{"dealprice block", `<span id="priceblock_dealprice">EUR 9,99</span>`, "EUR 9,99"},
		{"whole price fragment", `<span class="a-price-whole">24</span>`, "24"},
		{"no price at all", `<div></div>`, ""},
	}

	adapter := NewAmazonAdapter(logrus.New())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, "<html><body>"+tt.html+"</body></html>")
			product := adapter.Extract(doc, "https://www.amazon.com/dp/B000000000")
			require.NotNil(t, product)
			assert.Equal(t, tt.want, product.Price)
		})
	}
}

func TestAmazonExtract_BrandCleaning(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Visit the Acme Store", "Acme"},
		{"Brand: Acme", "Acme"},
		{"Acme", "Acme"},
		{"Visit the Acme Tools Store", "Acme Tools"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanAmazonBrand(tt.raw))
	}
}

func TestAmazonExtract_NoASIN(t *testing.T) {
	doc := parseHTML(t, `<html><body><span id="productTitle">Widget</span></body></html>`)
	adapter := NewAmazonAdapter(logrus.New())

	assert.Nil(t, adapter.Extract(doc, "https://www.amazon.com/s?k=widgets"))
	assert.Nil(t, adapter.Extract(doc, "://bad-url"))
}
