// Package popup is the transient UI surface. It holds no connection to the
// content process: each open re-reads persisted state and asks the
// background over the bus, renders, and exits.
package popup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"marketpilot/bus"
	"marketpilot/internal/types"
	"marketpilot/storage"
)

// Requester is the request/response side of the bus client.
type Requester interface {
	Request(ctx context.Context, typ bus.MessageType, payload interface{}) (json.RawMessage, error)
}

// Popup assembles one view per open.
type Popup struct {
	bus    Requester
	store  *storage.Bridge
	logger types.Logger
}

// View is everything one popup open shows. Backend failures land in Errors
// and render as inline text; they never abort the open.
type View struct {
	CurrentProduct *types.ProductData
	Tracked        []types.TrackedProduct
	Alerts         []types.Alert
	Errors         []string
}

// New creates a popup over the given bus client and storage bridge.
func New(busClient Requester, store *storage.Bridge, logger types.Logger) *Popup {
	return &Popup{bus: busClient, store: store, logger: logger}
}

// Open builds the view: current product straight from storage (nothing is
// pushed to the popup), tracked products and alerts via the background.
func (p *Popup) Open(ctx context.Context) *View {
	view := &View{}

	current, err := p.store.CurrentProduct()
	if err != nil {
		view.Errors = append(view.Errors, fmt.Sprintf("current product: %v", err))
	} else {
		view.CurrentProduct = current
	}

	if raw, err := p.bus.Request(ctx, bus.GetTracked, nil); err != nil {
		view.Errors = append(view.Errors, fmt.Sprintf("tracked products: %v", err))
	} else if err := json.Unmarshal(raw, &view.Tracked); err != nil {
		view.Errors = append(view.Errors, fmt.Sprintf("tracked products: %v", err))
	}

	if raw, err := p.bus.Request(ctx, bus.GetAlerts, nil); err != nil {
		view.Errors = append(view.Errors, fmt.Sprintf("alerts: %v", err))
	} else if err := json.Unmarshal(raw, &view.Alerts); err != nil {
		view.Errors = append(view.Errors, fmt.Sprintf("alerts: %v", err))
	}

	return view
}

// Optimize submits the current product for optimization. The second return
// value is the inline error text shown when the backend fails.
func (p *Popup) Optimize(ctx context.Context, req *types.OptimizeRequest) (*types.OptimizeResult, string) {
	raw, err := p.bus.Request(ctx, bus.Optimize, req)
	if err != nil {
		return nil, err.Error()
	}
	var result types.OptimizeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Sprintf("bad optimize response: %v", err)
	}
	return &result, ""
}

// Track asks the background to start tracking a product.
func (p *Popup) Track(ctx context.Context, product *types.ProductData) (*types.TrackedProduct, error) {
	req := types.TrackRequest{
		Marketplace: product.Marketplace,
		ProductID:   product.ProductID,
		ProductName: product.Title,
		URL:         product.URL,
	}
	raw, err := p.bus.Request(ctx, bus.TrackProduct, req)
	if err != nil {
		return nil, err
	}
	var tracked types.TrackedProduct
	if err := json.Unmarshal(raw, &tracked); err != nil {
		return nil, fmt.Errorf("bad track response: %w", err)
	}
	return &tracked, nil
}

// Render writes the view as plain text.
func (v *View) Render(w io.Writer) {
	if v.CurrentProduct != nil {
		fmt.Fprintf(w, "Current product [%s] %s\n", v.CurrentProduct.Marketplace, v.CurrentProduct.Title)
		fmt.Fprintf(w, "  id: %s  price: %s\n", v.CurrentProduct.ProductID, v.CurrentProduct.Price)
	} else {
		fmt.Fprintln(w, "No product on the current page.")
	}

	fmt.Fprintf(w, "Tracked products (%d):\n", len(v.Tracked))
	for _, tp := range v.Tracked {
		fmt.Fprintf(w, "  [%s] %s  last price: %s\n", tp.Marketplace, tp.ProductName, tp.LastPrice)
	}

	fmt.Fprintf(w, "Alerts (%d):\n", len(v.Alerts))
	for _, a := range v.Alerts {
		fmt.Fprintf(w, "  [%s] %s: %s -> %s\n", a.Marketplace, a.ProductName, a.OldPrice, a.NewPrice)
	}

	for _, e := range v.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
}
