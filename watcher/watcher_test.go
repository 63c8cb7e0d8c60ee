package watcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePage struct {
	mu  sync.Mutex
	url string
}

func (f *fakePage) CurrentURL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakePage) setURL(u string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = u
}

func TestOnMutation_NoURLChangeNoRun(t *testing.T) {
	page := &fakePage{url: "https://www.amazon.com/dp/B000000000"}
	var runs atomic.Int32

	w := New(page, 5*time.Millisecond, func(context.Context) { runs.Add(1) }, logrus.New())
	w.lastURL = page.url

	w.OnMutation(context.Background())
	w.OnMutation(context.Background())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestOnMutation_URLChangeSchedulesOneRunAfterSettle(t *testing.T) {
	page := &fakePage{url: "https://www.amazon.com/dp/B000000000"}
	var runs atomic.Int32

	w := New(page, 20*time.Millisecond, func(context.Context) { runs.Add(1) }, logrus.New())
	w.lastURL = page.url

	page.setURL("https://www.amazon.com/dp/B000000001")
	w.OnMutation(context.Background())

	// Not yet: the settle delay has not elapsed.
	assert.Equal(t, int32(0), runs.Load())

	// Further mutations without another URL change schedule nothing extra.
	w.OnMutation(context.Background())
	w.OnMutation(context.Background())

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestOnMutation_TwoChangesInsideSettleWindowBothFire(t *testing.T) {
	// Known limitation, preserved on purpose: there is no reentrancy guard,
	// so back-to-back navigations inside one settle window each fire a run.
	page := &fakePage{url: "https://www.amazon.com/dp/B000000000"}
	var runs atomic.Int32

	w := New(page, 30*time.Millisecond, func(context.Context) { runs.Add(1) }, logrus.New())
	w.lastURL = page.url

	page.setURL("https://www.amazon.com/dp/B000000001")
	w.OnMutation(context.Background())
	page.setURL("https://www.amazon.com/dp/B000000002")
	w.OnMutation(context.Background())

	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestStart_RunsOnceImmediatelyAndReactsToSignals(t *testing.T) {
	page := &fakePage{url: "https://allegro.pl/oferta/gadzet-1234567890"}
	var runs atomic.Int32

	w := New(page, 10*time.Millisecond, func(context.Context) { runs.Add(1) }, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mutations := make(chan struct{})
	done := make(chan struct{})
	go func() {
		w.Start(ctx, mutations)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	page.setURL("https://allegro.pl/oferta/inny-gadzet-9876543210")
	mutations <- struct{}{}

	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)

	close(mutations)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on channel close")
	}
}

func TestNew_DefaultSettle(t *testing.T) {
	w := New(&fakePage{}, 0, func(context.Context) {}, logrus.New())
	assert.Equal(t, DefaultSettleDelay, w.settle)
}
