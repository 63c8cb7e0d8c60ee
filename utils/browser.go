package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"marketpilot/internal/types"
)

// Session drives one live browser tab for the content watcher. Unlike a
// one-shot page fetch it stays attached across SPA navigations, which never
// reload the document.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger types.Logger
}

// mutationProbe installs a MutationObserver on document.body once per loaded
// document and returns the running mutation count. Re-evaluating after a real
// page load reinstalls the observer because window state was wiped.
const mutationProbe = `(function() {
	if (window.__mpMutationCount === undefined) {
		window.__mpMutationCount = 0;
		new MutationObserver(function() { window.__mpMutationCount++; })
			.observe(document.body, { childList: true, subtree: true });
	}
	return window.__mpMutationCount;
})()`

// NewSession opens a browser tab and navigates it to startURL.
func NewSession(parent context.Context, startURL string, timeout time.Duration, logger types.Logger) (*Session, error) {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	browserCtx, cancel := chromedp.NewContext(parent)
	s := &Session{ctx: browserCtx, cancel: cancel, logger: logger}

	navCtx, navCancel := context.WithTimeout(browserCtx, timeout)
	defer navCancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(startURL),
		chromedp.Sleep(500*time.Millisecond),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open %s: %w", startURL, err)
	}
	logger.Infof("browser session opened at %s", startURL)
	return s, nil
}

// CurrentURL returns the tab's live location, which SPA route changes update
// without any load event.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var href string
	if err := s.run(ctx, chromedp.Evaluate("window.location.href", &href)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return href, nil
}

// HTML snapshots the full document as rendered right now.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to snapshot page: %w", err)
	}
	s.logger.Debugf("snapshotted %d bytes of DOM", len(html))
	return html, nil
}

// Eval runs a script in the page and decodes its result into out.
func (s *Session) Eval(ctx context.Context, js string, out interface{}) error {
	return s.run(ctx, chromedp.Evaluate(js, out))
}

// ExposeClick registers fn as a window-level function the page can call, used
// to route overlay clicks back into Go.
func (s *Session) ExposeClick(name string, fn func()) error {
	return chromedp.Run(s.ctx, chromedp.Expose(name, func(string) (string, error) {
		fn()
		return "", nil
	}))
}

// WatchMutations polls the injected MutationObserver counter and emits one
// signal whenever it moved since the last poll. The channel closes when ctx
// ends. Signals coalesce: a slow consumer sees at most one pending signal.
func (s *Session) WatchMutations(ctx context.Context, poll time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		var last int
		ticker := time.NewTicker(poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			var count int
			if err := s.run(ctx, chromedp.Evaluate(mutationProbe, &count)); err != nil {
				s.logger.Debugf("mutation probe failed: %v", err)
				continue
			}
			if count != last {
				last = count
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch
}

// Close tears the tab down. In-flight work is simply discarded; there is no
// cleanup hook to run.
func (s *Session) Close() {
	s.cancel()
}

// run executes actions against the long-lived tab while honoring the caller's
// deadline.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(s.ctx, actions...)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
