package popup

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpilot/bus"
	"marketpilot/internal/types"
	"marketpilot/storage"
)

type fakeBus struct {
	responses map[bus.MessageType]interface{}
	errs      map[bus.MessageType]error
	requests  []bus.MessageType
}

func (f *fakeBus) Request(ctx context.Context, typ bus.MessageType, payload interface{}) (json.RawMessage, error) {
	f.requests = append(f.requests, typ)
	if err, ok := f.errs[typ]; ok {
		return nil, err
	}
	data, err := json.Marshal(f.responses[typ])
	if err != nil {
		return nil, err
	}
	return data, nil
}

func newTestStore(t *testing.T) *storage.Bridge {
	t.Helper()
	return storage.New(filepath.Join(t.TempDir(), "state.json"), logrus.New())
}

func TestPopup_OpenReadsFreshState(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetCurrentProduct(&types.ProductData{
		Marketplace: types.MarketplaceAmazon,
		ProductID:   "B07XYZ1234",
		Title:       "Widget",
		Price:       "$19.99",
	}))

	fb := &fakeBus{responses: map[bus.MessageType]interface{}{
		bus.GetTracked: []types.TrackedProduct{{ID: "t1", ProductName: "Widget", LastPrice: "$19.99"}},
		bus.GetAlerts:  []types.Alert{{ID: "a1", ProductName: "Widget", OldPrice: "$21.99", NewPrice: "$19.99"}},
	}}

	p := New(fb, store, logrus.New())
	view := p.Open(context.Background())

	require.NotNil(t, view.CurrentProduct)
	assert.Equal(t, "B07XYZ1234", view.CurrentProduct.ProductID)
	require.Len(t, view.Tracked, 1)
	require.Len(t, view.Alerts, 1)
	assert.Empty(t, view.Errors)
	assert.Equal(t, []bus.MessageType{bus.GetTracked, bus.GetAlerts}, fb.requests)
}

func TestPopup_OpenSurvivesBackendFailure(t *testing.T) {
	store := newTestStore(t)
	fb := &fakeBus{errs: map[bus.MessageType]error{
		bus.GetTracked: errors.New("backend down"),
		bus.GetAlerts:  errors.New("backend down"),
	}}

	p := New(fb, store, logrus.New())
	view := p.Open(context.Background())

	assert.Nil(t, view.CurrentProduct)
	assert.Empty(t, view.Tracked)
	assert.Empty(t, view.Alerts)
	require.Len(t, view.Errors, 2)
	assert.Contains(t, view.Errors[0], "backend down")
}

func TestPopup_OptimizeReturnsInlineError(t *testing.T) {
	store := newTestStore(t)
	fb := &fakeBus{errs: map[bus.MessageType]error{
		bus.Optimize: errors.New("optimize API: status 402"),
	}}

	p := New(fb, store, logrus.New())
	result, inlineErr := p.Optimize(context.Background(), &types.OptimizeRequest{ProductTitle: "Widget"})

	assert.Nil(t, result)
	assert.Contains(t, inlineErr, "402")
}

func TestPopup_OptimizeRoundtrip(t *testing.T) {
	store := newTestStore(t)
	fb := &fakeBus{responses: map[bus.MessageType]interface{}{
		bus.Optimize: types.OptimizeResult{
			Listing:      types.Listing{Title: "Widget Deluxe"},
			RankingJuice: types.RankingJuice{Score: 91.2},
		},
	}}

	p := New(fb, store, logrus.New())
	result, inlineErr := p.Optimize(context.Background(), &types.OptimizeRequest{ProductTitle: "Widget"})

	require.Empty(t, inlineErr)
	require.NotNil(t, result)
	assert.Equal(t, "Widget Deluxe", result.Listing.Title)
	assert.InDelta(t, 91.2, result.RankingJuice.Score, 0.001)
}

func TestPopup_Track(t *testing.T) {
	store := newTestStore(t)
	fb := &fakeBus{responses: map[bus.MessageType]interface{}{
		bus.TrackProduct: types.TrackedProduct{ID: "01HX", ProductID: "B07XYZ1234", ProductName: "Widget"},
	}}

	p := New(fb, store, logrus.New())
	tracked, err := p.Track(context.Background(), &types.ProductData{
		Marketplace: types.MarketplaceAmazon,
		ProductID:   "B07XYZ1234",
		Title:       "Widget",
		URL:         "https://www.amazon.com/dp/B07XYZ1234",
	})

	require.NoError(t, err)
	assert.Equal(t, "01HX", tracked.ID)
}

func TestView_RenderIncludesErrors(t *testing.T) {
	view := &View{Errors: []string{"alerts: backend down"}}
	var sb strings.Builder
	view.Render(&sb)

	assert.Contains(t, sb.String(), "No product on the current page.")
	assert.Contains(t, sb.String(), "error: alerts: backend down")
}
