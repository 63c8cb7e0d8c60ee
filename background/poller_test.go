package background

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketpilot/adapters"
	"marketpilot/internal/types"
	"marketpilot/storage"
	"marketpilot/utils"
)

func newPollerFixture(t *testing.T, price *atomic.Value) (*Poller, *storage.Bridge, *httptest.Server) {
	t.Helper()
	logger := logrus.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<span id="productTitle">Widget</span>
			<span class="a-price"><span class="a-offscreen">` + price.Load().(string) + `</span></span>
		</body></html>`))
	}))
	t.Cleanup(server.Close)

	store := storage.New(filepath.Join(t.TempDir(), "state.json"), logger)
	config := types.DefaultConfig()
	config.RequestDelay = 5 * time.Millisecond
	config.MaxRetries = 0
	fetcher := utils.NewHTTPClient(config, logger)
	t.Cleanup(fetcher.Close)

	poller := NewPoller(store, adapters.NewRegistry(logger), fetcher, time.Minute, logger)
	return poller, store, server
}

func TestPoller_SeedsBaselineThenAlertsOnChange(t *testing.T) {
	var price atomic.Value
	price.Store("$19.99")
	poller, store, server := newPollerFixture(t, &price)

	require.NoError(t, store.AddTracked(types.TrackedProduct{
		ID:          "t1",
		Marketplace: types.MarketplaceAmazon,
		ProductID:   "B000000000",
		ProductName: "Widget",
		URL:         server.URL + "/dp/B000000000",
	}))

	// First cycle only seeds the last-seen price.
	poller.CheckAll(context.Background())

	tracked, err := store.Tracked()
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "$19.99", tracked[0].LastPrice)

	alerts, err := store.Alerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)

	// Price moved: the second cycle records exactly one alert.
	price.Store("$14.99")
	poller.CheckAll(context.Background())

	alerts, err = store.Alerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "$19.99", alerts[0].OldPrice)
	assert.Equal(t, "$14.99", alerts[0].NewPrice)
	assert.NotEmpty(t, alerts[0].ID)

	tracked, err = store.Tracked()
	require.NoError(t, err)
	assert.Equal(t, "$14.99", tracked[0].LastPrice)
}

func TestPoller_UnchangedPriceIsQuiet(t *testing.T) {
	var price atomic.Value
	price.Store("$19.99")
	poller, store, server := newPollerFixture(t, &price)

	require.NoError(t, store.AddTracked(types.TrackedProduct{
		ID:          "t1",
		Marketplace: types.MarketplaceAmazon,
		ProductID:   "B000000000",
		URL:         server.URL + "/dp/B000000000",
		LastPrice:   "$19.99",
	}))

	poller.CheckAll(context.Background())
	poller.CheckAll(context.Background())

	alerts, err := store.Alerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestPoller_UnreachablePageIsSkipped(t *testing.T) {
	var price atomic.Value
	price.Store("$19.99")
	poller, store, _ := newPollerFixture(t, &price)

	require.NoError(t, store.AddTracked(types.TrackedProduct{
		ID:          "t1",
		Marketplace: types.MarketplaceAmazon,
		ProductID:   "B000000000",
		URL:         "http://127.0.0.1:1/dp/B000000000",
		LastPrice:   "$19.99",
	}))

	poller.CheckAll(context.Background())

	tracked, err := store.Tracked()
	require.NoError(t, err)
	assert.Equal(t, "$19.99", tracked[0].LastPrice)

	alerts, err := store.Alerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
