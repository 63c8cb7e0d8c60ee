// Package storage persists the small cross-context state surface: the
// current product singleton, the tracked-products list and the alerts list.
// It is the only channel of continuity across process restarts.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"marketpilot/internal/types"
)

// Bridge is a JSON-file key/value surface. Every read re-reads the file and
// every write rewrites it whole: no process holds an in-memory authority,
// and concurrent writers from different processes are last-write-wins.
// Writes are rare and user-initiated, so no cross-process coordination.
type Bridge struct {
	path   string
	mu     sync.Mutex
	logger types.Logger
}

// state is the on-disk layout. Lists marshal as empty arrays, not null.
type state struct {
	CurrentProduct *types.ProductData     `json:"current_product,omitempty"`
	Tracked        []types.TrackedProduct `json:"tracked_products"`
	Alerts         []types.Alert          `json:"alerts"`
}

// New creates a bridge backed by the given file. The file is created lazily
// on first write; a missing file reads as empty state.
func New(path string, logger types.Logger) *Bridge {
	return &Bridge{path: path, logger: logger}
}

// CurrentProduct returns the current product singleton, nil when none is set.
func (b *Bridge) CurrentProduct() (*types.ProductData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return nil, err
	}
	return st.CurrentProduct, nil
}

// SetCurrentProduct overwrites the current product. Records are replaced, not
// merged; the previous one simply becomes superseded.
func (b *Bridge) SetCurrentProduct(p *types.ProductData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return err
	}
	st.CurrentProduct = p
	return b.save(st)
}

// Tracked returns the tracked-products list.
func (b *Bridge) Tracked() ([]types.TrackedProduct, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return nil, err
	}
	return st.Tracked, nil
}

// AddTracked appends one tracked product.
func (b *Bridge) AddTracked(tp types.TrackedProduct) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return err
	}
	st.Tracked = append(st.Tracked, tp)
	return b.save(st)
}

// SetTracked replaces the whole tracked-products list (poller updates).
func (b *Bridge) SetTracked(tracked []types.TrackedProduct) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return err
	}
	st.Tracked = tracked
	return b.save(st)
}

// Alerts returns the alerts list.
func (b *Bridge) Alerts() ([]types.Alert, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return nil, err
	}
	return st.Alerts, nil
}

// AddAlert appends one alert.
func (b *Bridge) AddAlert(a types.Alert) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.load()
	if err != nil {
		return err
	}
	st.Alerts = append(st.Alerts, a)
	return b.save(st)
}

func (b *Bridge) load() (*state, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return &state{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode storage file: %w", err)
	}
	return &st, nil
}

func (b *Bridge) save(st *state) error {
	if st.Tracked == nil {
		st.Tracked = []types.TrackedProduct{}
	}
	if st.Alerts == nil {
		st.Alerts = []types.Alert{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage state: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	b.logger.Debugf("wrote %d bytes to %s", len(data), b.path)
	return nil
}
