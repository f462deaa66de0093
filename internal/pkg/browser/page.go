// Package browser is the automatable page surface the scraper drives.
package browser

import (
	"context"
	"time"
)

// Page is one browser tab. Every call may block on network or DOM settling and
// fails once its timeout (or the page default when timeout <= 0) elapses.
type Page interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// Evaluate runs script in the page and decodes its JSON result into out.
	// out may be nil when the result is not needed.
	Evaluate(ctx context.Context, script string, out any) error
	Text(ctx context.Context, selector string) (string, error)
	// NewPage opens a secondary tab in the same browsing context.
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Browser is a running browser session with its primary tab.
type Browser interface {
	Page() Page
	Close() error
}

// Launcher starts a browser session.
type Launcher func(ctx context.Context) (Browser, error)
