package browser

import (
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/playwright-community/playwright-go"
)

// millis converts d to Playwright's millisecond timeout. Zero or negative
// durations return nil so Playwright keeps its default.
func millis(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func launchOptions(opts session.LaunchOptions) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
}

func contextOptions(opts session.ContextOptions) playwright.BrowserNewContextOptions {
	out := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		out.Viewport = &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		}
	}
	if opts.UserAgent != "" {
		out.UserAgent = playwright.String(opts.UserAgent)
	}
	return out
}

func gotoOptions(opts session.GotoOptions) playwright.PageGotoOptions {
	out := playwright.PageGotoOptions{Timeout: millis(opts.Timeout)}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		out.WaitUntil = &waitUntil
	}
	return out
}

func loadStateOptions(state string, timeout time.Duration) playwright.PageWaitForLoadStateOptions {
	out := playwright.PageWaitForLoadStateOptions{Timeout: millis(timeout)}
	if state != "" {
		s := playwright.LoadState(state)
		out.State = &s
	}
	return out
}
