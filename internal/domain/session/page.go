package session

import (
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// trackedPage times every engine call and reports its error to the manager
// so a lost connection detaches the session.
type trackedPage struct {
	m     *Manager
	inner Page
}

func (p *trackedPage) track(op string, err error) error {
	if err != nil {
		p.m.logger.Debug("Engine call failed", zap.String("op", op), zap.Error(err))
	}
	if p.m.isCurrent(p.inner) {
		p.m.observe(err)
	}
	return err
}

func (p *trackedPage) Goto(url string, opts GotoOptions) error {
	t := monitoring.NewTimer(p.m.metrics, "goto")
	err := p.inner.Goto(url, opts)
	t.Stop(err)
	return p.track("goto", err)
}

func (p *trackedPage) Click(selector string, timeout time.Duration) error {
	t := monitoring.NewTimer(p.m.metrics, "click")
	err := p.inner.Click(selector, timeout)
	t.Stop(err)
	return p.track("click", err)
}

func (p *trackedPage) Fill(selector, value string, timeout time.Duration) error {
	t := monitoring.NewTimer(p.m.metrics, "fill")
	err := p.inner.Fill(selector, value, timeout)
	t.Stop(err)
	return p.track("fill", err)
}

func (p *trackedPage) Press(key string) error {
	t := monitoring.NewTimer(p.m.metrics, "press")
	err := p.inner.Press(key)
	t.Stop(err)
	return p.track("press", err)
}

func (p *trackedPage) WaitForSelector(selector string, timeout time.Duration) error {
	t := monitoring.NewTimer(p.m.metrics, "wait_for_selector")
	err := p.inner.WaitForSelector(selector, timeout)
	t.Stop(err)
	return p.track("wait_for_selector", err)
}

func (p *trackedPage) WaitForLoadState(state string, timeout time.Duration) error {
	t := monitoring.NewTimer(p.m.metrics, "wait_for_load_state")
	err := p.inner.WaitForLoadState(state, timeout)
	t.Stop(err)
	return p.track("wait_for_load_state", err)
}

func (p *trackedPage) EvalOnSelectorAll(selector, expression string, arg any) (any, error) {
	t := monitoring.NewTimer(p.m.metrics, "eval_on_selector_all")
	res, err := p.inner.EvalOnSelectorAll(selector, expression, arg)
	t.Stop(err)
	return res, p.track("eval_on_selector_all", err)
}

func (p *trackedPage) Evaluate(expression string) (any, error) {
	t := monitoring.NewTimer(p.m.metrics, "evaluate")
	res, err := p.inner.Evaluate(expression)
	t.Stop(err)
	return res, p.track("evaluate", err)
}

func (p *trackedPage) Screenshot(path string, fullPage bool) error {
	t := monitoring.NewTimer(p.m.metrics, "screenshot")
	err := p.inner.Screenshot(path, fullPage)
	t.Stop(err)
	return p.track("screenshot", err)
}

func (p *trackedPage) Content() (string, error) {
	t := monitoring.NewTimer(p.m.metrics, "content")
	res, err := p.inner.Content()
	t.Stop(err)
	return res, p.track("content", err)
}

func (p *trackedPage) Title() (string, error) {
	t := monitoring.NewTimer(p.m.metrics, "title")
	res, err := p.inner.Title()
	t.Stop(err)
	return res, p.track("title", err)
}

func (p *trackedPage) URL() string {
	return p.inner.URL()
}

// Close is a no-op. The manager owns the page's lifetime.
func (p *trackedPage) Close() error {
	return nil
}
