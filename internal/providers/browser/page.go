package browser

import (
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/playwright-community/playwright-go"
)

type chromePage struct {
	inner playwright.Page
}

func (p *chromePage) Goto(url string, opts session.GotoOptions) error {
	_, err := p.inner.Goto(url, gotoOptions(opts))
	return err
}

func (p *chromePage) Click(selector string, timeout time.Duration) error {
	return p.inner.Click(selector, playwright.PageClickOptions{Timeout: millis(timeout)})
}

func (p *chromePage) Fill(selector, value string, timeout time.Duration) error {
	return p.inner.Fill(selector, value, playwright.PageFillOptions{Timeout: millis(timeout)})
}

func (p *chromePage) Press(key string) error {
	return p.inner.Keyboard().Press(key)
}

func (p *chromePage) WaitForSelector(selector string, timeout time.Duration) error {
	_, err := p.inner.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{Timeout: millis(timeout)})
	return err
}

func (p *chromePage) WaitForLoadState(state string, timeout time.Duration) error {
	return p.inner.WaitForLoadState(loadStateOptions(state, timeout))
}

func (p *chromePage) EvalOnSelectorAll(selector, expression string, arg any) (any, error) {
	return p.inner.EvalOnSelectorAll(selector, expression, arg)
}

func (p *chromePage) Evaluate(expression string) (any, error) {
	return p.inner.Evaluate(expression)
}

func (p *chromePage) Screenshot(path string, fullPage bool) error {
	_, err := p.inner.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	return err
}

func (p *chromePage) Content() (string, error) {
	return p.inner.Content()
}

func (p *chromePage) Title() (string, error) {
	return p.inner.Title()
}

func (p *chromePage) URL() string {
	return p.inner.URL()
}

func (p *chromePage) Close() error {
	return p.inner.Close()
}

var _ session.Page = (*chromePage)(nil)
