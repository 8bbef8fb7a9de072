// Package testutil provides an in-memory browser engine for tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
)

// ErrTargetClosed mimics the driver error seen once the browser is gone.
var ErrTargetClosed = errors.New("Target page, context or browser has been closed")

// Call is one recorded engine call.
type Call struct {
	Op   string
	Args []any
}

// FakeEngine implements session.Engine without a real browser. Pages
// navigate by recording the URL; everything else is scripted through the
// exported fields and the Fail hook.
type FakeEngine struct {
	mu sync.Mutex

	// Launched counts successful launches.
	Launched int
	// ShutdownCalled reports whether Shutdown ran.
	ShutdownCalled bool
	// LastLaunch and LastContext capture the options used.
	LastLaunch  session.LaunchOptions
	LastContext session.ContextOptions

	// Title is returned by every page's Title.
	Title string
	// HTML is returned by Content.
	HTML string
	// ScrapeResult is returned by EvalOnSelectorAll.
	ScrapeResult any
	// EvalResult is returned by Evaluate.
	EvalResult any
	// Redirect maps a navigation target to the final URL.
	Redirect map[string]string

	failures map[string]error
	hung     map[string]bool
	calls    []Call
	pages    []*FakePage
	browsers []*fakeBrowser
}

// NewFakeEngine creates an engine with sensible defaults.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		Title:    "Fake Page",
		HTML:     "<html><head><title>Fake Page</title></head><body><p>Hello</p></body></html>",
		Redirect: map[string]string{},
		failures: map[string]error{},
		hung:     map[string]bool{},
	}
}

// Fail makes every later call of op return err. Pass nil to clear.
// Ops: launch, new_context, new_page, goto, click, fill, press,
// wait_for_selector, wait_for_load_state, eval_on_selector_all, evaluate,
// screenshot, content, title, close_page, close_context, close_browser,
// shutdown.
func (e *FakeEngine) Fail(op string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.failures, op)
		return
	}
	e.failures[op] = err
}

// Hang makes later evaluate, eval_on_selector_all and content calls on op
// block until their page is closed, like a script promise that never
// settles.
func (e *FakeEngine) Hang(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hung[op] = true
}

// Disconnect makes every open browser report that it is no longer
// connected, without any call failing.
func (e *FakeEngine) Disconnect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.browsers {
		b.lost = true
	}
}

// Calls returns the recorded calls.
func (e *FakeEngine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// CallCount returns how many times op was called.
func (e *FakeEngine) CallCount(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded op names in order.
func (e *FakeEngine) Ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.Op
	}
	return out
}

// LastPage returns the most recently created page.
func (e *FakeEngine) LastPage() *FakePage {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pages) == 0 {
		return nil
	}
	return e.pages[len(e.pages)-1]
}

// OpenBrowsers returns the number of browsers not yet closed.
func (e *FakeEngine) OpenBrowsers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, b := range e.browsers {
		if !b.closed {
			n++
		}
	}
	return n
}

func (e *FakeEngine) record(op string, args ...any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Op: op, Args: args})
	return e.failures[op]
}

// Launch implements session.Engine.
func (e *FakeEngine) Launch(ctx context.Context, opts session.LaunchOptions) (session.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.record("launch", opts); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.Launched++
	e.LastLaunch = opts
	b := &fakeBrowser{engine: e}
	e.browsers = append(e.browsers, b)
	return b, nil
}

// Shutdown implements session.Engine.
func (e *FakeEngine) Shutdown() error {
	err := e.record("shutdown")
	e.mu.Lock()
	e.ShutdownCalled = true
	e.mu.Unlock()
	return err
}

type fakeBrowser struct {
	engine *FakeEngine
	closed bool
	lost   bool
}

func (b *fakeBrowser) IsConnected() bool {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	return !b.closed && !b.lost
}

func (b *fakeBrowser) NewContext(opts session.ContextOptions) (session.Context, error) {
	if err := b.engine.record("new_context", opts); err != nil {
		return nil, err
	}
	b.engine.mu.Lock()
	b.engine.LastContext = opts
	b.engine.mu.Unlock()
	return &fakeContext{engine: b.engine}, nil
}

func (b *fakeBrowser) Close() error {
	err := b.engine.record("close_browser")
	b.engine.mu.Lock()
	b.closed = true
	b.engine.mu.Unlock()
	return err
}

type fakeContext struct {
	engine *FakeEngine
}

func (c *fakeContext) NewPage() (session.Page, error) {
	if err := c.engine.record("new_page"); err != nil {
		return nil, err
	}
	p := &FakePage{engine: c.engine, url: "about:blank", closed: make(chan struct{})}
	c.engine.mu.Lock()
	c.engine.pages = append(c.engine.pages, p)
	c.engine.mu.Unlock()
	return p, nil
}

func (c *fakeContext) Close() error {
	return c.engine.record("close_context")
}

// FakePage is the page handed out by FakeEngine.
type FakePage struct {
	engine *FakeEngine

	mu        sync.Mutex
	url       string
	filled    map[string]string
	closed    chan struct{}
	closeOnce sync.Once
}

// block parks a hung call until the page closes.
func (p *FakePage) block(op string) error {
	p.engine.mu.Lock()
	hung := p.engine.hung[op]
	p.engine.mu.Unlock()
	if !hung {
		return nil
	}
	<-p.closed
	return ErrTargetClosed
}

// SetURL moves the page as if the site navigated on its own.
func (p *FakePage) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// Filled returns the value last filled into selector.
func (p *FakePage) Filled(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filled[selector]
}

func (p *FakePage) Goto(url string, opts session.GotoOptions) error {
	if err := p.engine.record("goto", url, opts); err != nil {
		return err
	}
	p.engine.mu.Lock()
	final, ok := p.engine.Redirect[url]
	p.engine.mu.Unlock()
	if !ok {
		final = url
	}
	p.SetURL(final)
	return nil
}

func (p *FakePage) Click(selector string, timeout time.Duration) error {
	return p.engine.record("click", selector, timeout)
}

func (p *FakePage) Fill(selector, value string, timeout time.Duration) error {
	if err := p.engine.record("fill", selector, len(value), timeout); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[selector] = value
	return nil
}

func (p *FakePage) Press(key string) error {
	return p.engine.record("press", key)
}

func (p *FakePage) WaitForSelector(selector string, timeout time.Duration) error {
	return p.engine.record("wait_for_selector", selector, timeout)
}

func (p *FakePage) WaitForLoadState(state string, timeout time.Duration) error {
	return p.engine.record("wait_for_load_state", state, timeout)
}

func (p *FakePage) EvalOnSelectorAll(selector, expression string, arg any) (any, error) {
	if err := p.engine.record("eval_on_selector_all", selector, arg); err != nil {
		return nil, err
	}
	if err := p.block("eval_on_selector_all"); err != nil {
		return nil, err
	}
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	if p.engine.ScrapeResult != nil {
		return p.engine.ScrapeResult, nil
	}
	return []any{}, nil
}

func (p *FakePage) Evaluate(expression string) (any, error) {
	if err := p.engine.record("evaluate", expression); err != nil {
		return nil, err
	}
	if err := p.block("evaluate"); err != nil {
		return nil, err
	}
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	return p.engine.EvalResult, nil
}

func (p *FakePage) Screenshot(path string, fullPage bool) error {
	if err := p.engine.record("screenshot", path, fullPage); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o600); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (p *FakePage) Content() (string, error) {
	if err := p.engine.record("content"); err != nil {
		return "", err
	}
	if err := p.block("content"); err != nil {
		return "", err
	}
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	return p.engine.HTML, nil
}

func (p *FakePage) Title() (string, error) {
	if err := p.engine.record("title"); err != nil {
		return "", err
	}
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	return p.engine.Title, nil
}

func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *FakePage) Close() error {
	err := p.engine.record("close_page")
	p.closeOnce.Do(func() { close(p.closed) })
	return err
}

var _ session.Engine = (*FakeEngine)(nil)
var _ session.Page = (*FakePage)(nil)
