// Package overlay manages the singleton floating affordance injected into
// the live page.
package overlay

import (
	"context"
	"fmt"

	"marketpilot/internal/types"
)

// NodeID is the well-known id of the injected badge element; its presence in
// the document is the only de-duplication mechanism. If the user closes the
// badge it stays gone until the next full classify+extract cycle.
const NodeID = "marketpilot-overlay"

// ClickBinding is the name of the browser-side function the badge invokes on
// click. The session wires it to a single fire-and-forget OPEN_POPUP message;
// the badge itself never awaits or renders a response.
const ClickBinding = "__marketpilotOpen"

// Script evaluates JavaScript inside the live page.
type Script interface {
	Eval(ctx context.Context, js string, out interface{}) error
}

// Controller injects and removes the badge. It must never break the host
// page: every script is wrapped so a failure surfaces as a Go error, not a
// page exception.
type Controller struct {
	page   Script
	logger types.Logger
}

// NewController creates an overlay controller over the given page.
func NewController(page Script, logger types.Logger) *Controller {
	return &Controller{page: page, logger: logger}
}

const injectScript = `(function() {
	if (document.getElementById(%q)) { return false; }
	var box = document.createElement('div');
	box.id = %q;
	box.style.cssText = 'position:fixed;bottom:24px;right:24px;z-index:2147483647;' +
		'background:#1a73e8;color:#fff;padding:10px 14px;border-radius:8px;' +
		'font:13px/1.4 sans-serif;box-shadow:0 2px 8px rgba(0,0,0,.3);cursor:pointer;';
	box.textContent = %q;
	var close = document.createElement('span');
	close.textContent = '×';
	close.style.cssText = 'margin-left:10px;font-weight:bold;';
	close.addEventListener('click', function(ev) {
		ev.stopPropagation();
		box.remove();
	});
	box.appendChild(close);
	box.addEventListener('click', function() {
		if (window.%s) { window.%s(''); }
	});
	document.body.appendChild(box);
	return true;
})()`

const removeScript = `(function() {
	var node = document.getElementById(%q);
	if (!node) { return false; }
	node.remove();
	return true;
})()`

// Render ensures exactly one badge exists for the given product. Injection
// is a no-op when the well-known node is already present, whatever product
// it was rendered for.
func (c *Controller) Render(ctx context.Context, product *types.ProductData) error {
	js := fmt.Sprintf(injectScript, NodeID, NodeID, badgeLabel(product), ClickBinding, ClickBinding)
	var injected bool
	if err := c.page.Eval(ctx, js, &injected); err != nil {
		return fmt.Errorf("failed to inject overlay: %w", err)
	}
	if injected {
		c.logger.Debugf("overlay injected for %s/%s", product.Marketplace, product.ProductID)
	}
	return nil
}

// Remove deletes the badge node from the DOM outright; it is not hidden.
func (c *Controller) Remove(ctx context.Context) error {
	var removed bool
	if err := c.page.Eval(ctx, fmt.Sprintf(removeScript, NodeID), &removed); err != nil {
		return fmt.Errorf("failed to remove overlay: %w", err)
	}
	return nil
}

func badgeLabel(product *types.ProductData) string {
	title := product.Title
	if title == "" {
		title = product.ProductID
	}
	if len(title) > 40 {
		title = title[:40] + "…"
	}
	return "MarketPilot: " + title
}
