package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Engine launches Chromium through a lazily started Playwright driver.
type Engine struct {
	mu     sync.Mutex
	pw     *playwright.Playwright // Protected by mu
	logger *zap.Logger

	// start is replaced in tests.
	start func() (*playwright.Playwright, error)
}

// NewEngine creates an engine. Nothing is started until the first Launch.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, start: startDriver}
}

func startDriver() (*playwright.Playwright, error) {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return pw, nil
}

func (e *Engine) driver() (*playwright.Playwright, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pw != nil {
		return e.pw, nil
	}

	pw, err := e.start()
	if err != nil {
		return nil, err
	}
	e.pw = pw
	e.logger.Info("Playwright driver started")
	return pw, nil
}

// Launch implements session.Engine.
func (e *Engine) Launch(ctx context.Context, opts session.LaunchOptions) (session.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := e.driver()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := pw.Chromium.Launch(launchOptions(opts))
	if err != nil {
		return nil, err
	}
	return &chromeBrowser{inner: b}, nil
}

// Shutdown implements session.Engine. Stopping a driver that never started
// is a no-op.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pw == nil {
		return nil
	}
	err := e.pw.Stop()
	e.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	e.logger.Info("Playwright driver stopped")
	return nil
}

type chromeBrowser struct {
	inner playwright.Browser
}

func (b *chromeBrowser) NewContext(opts session.ContextOptions) (session.Context, error) {
	c, err := b.inner.NewContext(contextOptions(opts))
	if err != nil {
		return nil, err
	}
	return &chromeContext{inner: c, defaultTimeout: opts.DefaultTimeout}, nil
}

func (b *chromeBrowser) IsConnected() bool {
	return b.inner.IsConnected()
}

func (b *chromeBrowser) Close() error {
	return b.inner.Close()
}

type chromeContext struct {
	inner          playwright.BrowserContext
	defaultTimeout time.Duration
}

func (c *chromeContext) NewPage() (session.Page, error) {
	p, err := c.inner.NewPage()
	if err != nil {
		return nil, err
	}
	if ms := millis(c.defaultTimeout); ms != nil {
		p.SetDefaultTimeout(*ms)
	}
	return &chromePage{inner: p}, nil
}

func (c *chromeContext) Close() error {
	return c.inner.Close()
}

var _ session.Engine = (*Engine)(nil)
