// Package adapters holds one extractor per marketplace plus the registry that
// dispatches to them. Extractors read a DOM snapshot defensively: every field
// goes through a descending chain of selector candidates, nothing ever panics
// or returns an error, and a page whose marketplace-native id cannot be
// resolved yields no record at all.
package adapters

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"marketpilot/internal/types"
)

// BaseAdapter provides the shared DOM-reading helpers used by all marketplace
// adapters. Helpers recover locally: a selector that matches nothing simply
// falls through to the next candidate.
type BaseAdapter struct {
	logger types.Logger
}

// NewBaseAdapter creates the shared helper base.
func NewBaseAdapter(logger types.Logger) *BaseAdapter {
	return &BaseAdapter{logger: logger}
}

// FirstText returns the text of the first selector that matches an element
// with non-empty text, in the order given. Most specific/current layout
// selectors go first, legacy fallbacks after.
func (b *BaseAdapter) FirstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if text := NormalizeSpace(el.Text()); text != "" {
			return text
		}
	}
	return ""
}

// FirstAttr returns the named attribute of the first selector that matches an
// element carrying it with a non-empty value.
func (b *BaseAdapter) FirstAttr(doc *goquery.Document, attr string, selectors ...string) string {
	for _, sel := range selectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if val, ok := el.Attr(attr); ok {
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
	}
	return ""
}

// NormalizeSpace collapses runs of whitespace into single spaces and trims.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
