// Package strategy turns a question into at most one concrete page action.
//
// Each strategy selects zero or one element using generic heuristics over
// visible text, acts on it through a Session, and returns the resulting
// UIState only when the action produced an observable change. A failure on
// one candidate element moves on to the next candidate; strategies never
// return errors.
package strategy

import (
	"context"
	"time"

	"github.com/v0xg/uiscout/internal/uistate"
)

// Element is a handle to one DOM node in the current page.
type Element interface {
	Text(ctx context.Context) (string, error)
	Box(ctx context.Context) (uistate.BoundingBox, error)
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
}

// Session is the single browsing cursor a strategy acts through. It is owned
// by the caller and only borrowed for the duration of one strategy call.
type Session interface {
	// Query returns the elements matching a CSS selector in document order.
	Query(ctx context.Context, selector string) ([]Element, error)
	// QueryText returns elements matching selector whose visible text
	// contains text, optionally ignoring case.
	QueryText(ctx context.Context, selector, text string, ignoreCase bool) ([]Element, error)
	CurrentURL(ctx context.Context) (string, error)
	// Wait pauses for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
	// Capture snapshots the current page.
	Capture(ctx context.Context, description string, kind uistate.Kind) (*uistate.UIState, error)
}
