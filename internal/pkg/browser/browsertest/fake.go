// Package browsertest provides a scriptable in-memory browser.Page.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
)

// FakePage answers browser.Page calls from hook functions. A nil hook succeeds
// with a zero value. Every call is recorded in Calls as "<Method> <arg>".
type FakePage struct {
	GotoFunc        func(url string) error
	WaitVisibleFunc func(selector string) error
	ClickFunc       func(selector string) error
	EvaluateFunc    func(script string) (any, error)
	TextFunc        func(selector string) (string, error)
	NewPageFunc     func() (browser.Page, error)
	CloseFunc       func() error

	mu     sync.Mutex
	calls  []string
	closed bool
}

var _ browser.Page = (*FakePage)(nil)

func (p *FakePage) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (p *FakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// Count returns how many recorded calls equal call.
func (p *FakePage) Count(call string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *FakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	p.record("Goto %s", url)
	if p.GotoFunc != nil {
		return p.GotoFunc(url)
	}
	return nil
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.record("WaitVisible %s", selector)
	if p.WaitVisibleFunc != nil {
		return p.WaitVisibleFunc(selector)
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p.record("Click %s", selector)
	if p.ClickFunc != nil {
		return p.ClickFunc(selector)
	}
	return nil
}

// Evaluate passes the hook result through JSON into out, like a real page would.
func (p *FakePage) Evaluate(ctx context.Context, script string, out any) error {
	p.record("Evaluate")
	if p.EvaluateFunc == nil {
		return nil
	}
	v, err := p.EvaluateFunc(script)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (p *FakePage) Text(ctx context.Context, selector string) (string, error) {
	p.record("Text %s", selector)
	if p.TextFunc != nil {
		return p.TextFunc(selector)
	}
	return "", nil
}

func (p *FakePage) NewPage(ctx context.Context) (browser.Page, error) {
	p.record("NewPage")
	if p.NewPageFunc != nil {
		return p.NewPageFunc()
	}
	return &FakePage{}, nil
}

func (p *FakePage) Close() error {
	p.record("Close")
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	if p.CloseFunc != nil {
		return p.CloseFunc()
	}
	return nil
}

// FakeBrowser wraps a FakePage as a browser.Browser.
type FakeBrowser struct {
	Main *FakePage

	mu     sync.Mutex
	closed int
}

func (b *FakeBrowser) Page() browser.Page { return b.Main }

func (b *FakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return nil
}

// CloseCount reports how many times Close was called.
func (b *FakeBrowser) CloseCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Launcher returns a browser.Launcher that always yields b.
func (b *FakeBrowser) Launcher() browser.Launcher {
	return func(ctx context.Context) (browser.Browser, error) {
		return b, nil
	}
}
