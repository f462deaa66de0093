package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Options configures the headless Chrome session.
type Options struct {
	Headful   bool
	NoSandbox bool
	UserAgent string
	ExecPath  string
	// OpTimeout bounds calls that take no explicit timeout (Evaluate, Text).
	OpTimeout time.Duration
	Debug     bool
}

// Chrome returns a Launcher backed by chromedp.
func Chrome(opts Options) Launcher {
	return func(ctx context.Context) (Browser, error) {
		return NewChromeSession(ctx, opts)
	}
}

// ChromeSession owns the Chrome process and its first tab.
type ChromeSession struct {
	allocCancel context.CancelFunc
	page        *chromePage
}

// NewChromeSession launches Chrome and opens the primary tab.
func NewChromeSession(ctx context.Context, opts Options) (*ChromeSession, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	opTimeout := opts.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 10 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.UserAgent(userAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if opts.Debug {
			slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
		}
	}))

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &ChromeSession{
		allocCancel: allocCancel,
		page:        &chromePage{ctx: browserCtx, cancel: browserCancel, opTimeout: opTimeout},
	}, nil
}

func (s *ChromeSession) Page() Page {
	return s.page
}

// Close shuts the browser down. It is safe to call more than once.
func (s *ChromeSession) Close() error {
	err := s.page.Close()
	s.allocCancel()
	return err
}

type chromePage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	opTimeout time.Duration
	closed    bool
}

// run executes actions on the tab bounded by timeout and by the caller's ctx.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if p.closed {
		return errors.New("page is closed")
	}
	if timeout <= 0 {
		timeout = p.opTimeout
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// queryOption picks XPath search for selectors starting with "/" and CSS otherwise.
func queryOption(selector string) chromedp.QueryOption {
	if strings.HasPrefix(selector, "/") {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Goto returns once the document has been parsed (DOMContentLoaded). It does not
// wait for images, ads or other subresources.
func (p *chromePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	return p.run(ctx, timeout, navigateDOMReady(url))
}

func navigateDOMReady(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		lctx, cancel := context.WithCancel(ctx)
		defer cancel()

		ready := make(chan struct{})
		var once sync.Once
		chromedp.ListenTarget(lctx, func(ev any) {
			if _, ok := ev.(*page.EventDomContentEventFired); ok {
				once.Do(func() { close(ready) })
			}
		})

		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		switch {
		case err != nil:
			return err
		case errorText != "":
			return fmt.Errorf("page load error %s", errorText)
		}

		select {
		case <-ready:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitVisible(selector, queryOption(selector)))
}

func (p *chromePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Click(selector, queryOption(selector), chromedp.NodeVisible))
}

func (p *chromePage) Evaluate(ctx context.Context, script string, out any) error {
	awaitPromise := func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
		return params.WithAwaitPromise(true)
	}
	return p.run(ctx, 0, chromedp.Evaluate(script, out, awaitPromise))
}

func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := p.run(ctx, 0, chromedp.TextContent(selector, &text, queryOption(selector))); err != nil {
		return "", err
	}
	return text, nil
}

func (p *chromePage) NewPage(ctx context.Context) (Page, error) {
	if p.closed {
		return nil, errors.New("page is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(p.ctx)
	tab := &chromePage{ctx: tabCtx, cancel: cancel, opTimeout: p.opTimeout}
	// The first Run allocates the target and ties it to tabCtx, so it must not
	// go through a timeout-scoped child context.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return tab, nil
}

func (p *chromePage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
