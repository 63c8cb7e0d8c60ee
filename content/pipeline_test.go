package content

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketpilot/adapters"
	"marketpilot/bus"
	"marketpilot/internal/types"
	"marketpilot/storage"
)

type fakeSnapshot struct {
	url  string
	html string
}

func (f *fakeSnapshot) CurrentURL(context.Context) (string, error) { return f.url, nil }
func (f *fakeSnapshot) HTML(context.Context) (string, error)       { return f.html, nil }

type fakeAnnouncer struct {
	notifications []bus.MessageType
	payloads      []interface{}
}

func (f *fakeAnnouncer) Notify(typ bus.MessageType, payload interface{}) error {
	f.notifications = append(f.notifications, typ)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeOverlay struct {
	rendered []*types.ProductData
}

func (f *fakeOverlay) Render(_ context.Context, p *types.ProductData) error {
	f.rendered = append(f.rendered, p)
	return nil
}

func newPipeline(t *testing.T, page *fakeSnapshot) (*Pipeline, *storage.Bridge, *fakeAnnouncer, *fakeOverlay) {
	t.Helper()
	logger := logrus.New()
	store := storage.New(filepath.Join(t.TempDir(), "state.json"), logger)
	announcer := &fakeAnnouncer{}
	ovl := &fakeOverlay{}
	p := New(page, adapters.NewRegistry(logger), store, announcer, ovl, logger)
	return p, store, announcer, ovl
}

func TestRun_ProductPageFlowsThroughAllSteps(t *testing.T) {
	page := &fakeSnapshot{
		url: "https://www.amazon.com/dp/B000000000",
		html: `<html><body>
			<span id="productTitle">Widget</span>
			<span class="a-price"><span class="a-offscreen">$19.99</span></span>
		</body></html>`,
	}
	pipeline, store, announcer, ovl := newPipeline(t, page)

	pipeline.Run(context.Background())

	stored, err := store.CurrentProduct()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "B000000000", stored.ProductID)
	assert.Equal(t, "Widget", stored.Title)
	assert.Equal(t, "$19.99", stored.Price)

	require.Len(t, announcer.notifications, 1)
	assert.Equal(t, bus.ProductDetected, announcer.notifications[0])

	require.Len(t, ovl.rendered, 1)
	assert.Equal(t, "B000000000", ovl.rendered[0].ProductID)
}

func TestRun_ClassificationMissIsSilentNoOp(t *testing.T) {
	page := &fakeSnapshot{url: "https://www.example.com/dp/B000000000", html: "<html></html>"}
	pipeline, store, announcer, ovl := newPipeline(t, page)

	pipeline.Run(context.Background())

	stored, err := store.CurrentProduct()
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, announcer.notifications)
	assert.Empty(t, ovl.rendered)
}

func TestRun_NonProductPageIsSilentNoOp(t *testing.T) {
	page := &fakeSnapshot{url: "https://www.amazon.com/s?k=widgets", html: "<html></html>"}
	pipeline, _, announcer, ovl := newPipeline(t, page)

	pipeline.Run(context.Background())

	assert.Empty(t, announcer.notifications)
	assert.Empty(t, ovl.rendered)
}

func TestRun_ExtractionMissProducesNothingDownstream(t *testing.T) {
	// Product-page path but no identifiable id in the live DOM or URL.
	page := &fakeSnapshot{
		url:  "https://www.kaufland.de/product/abc/",
		html: `<html><body><h1 class="rd-title">Katalog</h1></body></html>`,
	}
	pipeline, store, announcer, ovl := newPipeline(t, page)

	pipeline.Run(context.Background())

	stored, err := store.CurrentProduct()
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, announcer.notifications)
	assert.Empty(t, ovl.rendered)
}

func TestRun_SecondRunOverwritesCurrentProduct(t *testing.T) {
	page := &fakeSnapshot{
		url:  "https://www.amazon.com/dp/B000000000",
		html: `<html><body><span id="productTitle">Widget</span></body></html>`,
	}
	pipeline, store, _, _ := newPipeline(t, page)

	pipeline.Run(context.Background())
	page.url = "https://www.ebay.com/itm/295482917561"
	page.html = `<html><body><h1 id="itemTitle">Details about Camera</h1></body></html>`
	pipeline.Run(context.Background())

	stored, err := store.CurrentProduct()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, types.MarketplaceEbay, stored.Marketplace)
	assert.Equal(t, "295482917561", stored.ProductID)
	assert.Equal(t, "Camera", stored.Title)
}
