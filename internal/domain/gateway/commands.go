package gateway

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/policy"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/GriffinCanCode/browser-gateway/internal/providers/scraper"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/utils"
	"go.uber.org/zap"
)

// Action bounds
const (
	ActionTimeout      = 10 * time.Second
	DefaultWaitTimeout = 15 * time.Second
	MaxWaitTimeout     = 30 * time.Second
	DefaultScrapeLimit = 50
	MaxScrapeLimit     = 1000
	// evalAuditPrefix is how much of an expression the audit log keeps.
	evalAuditPrefix = 100
)

const scrapeExpression = `(elements, limit) => elements
	.map(el => (el.innerText || el.textContent || '').trim())
	.filter(t => t.length > 0)
	.slice(0, limit)`

// InitResult is the outcome of Init.
type InitResult struct {
	SessionID          id.SessionID
	AlreadyInitialized bool
	Message            string
}

// Init launches the browser. A second call reports the existing session.
func (g *Gateway) Init(ctx context.Context) (*InitResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	already, err := g.session.Init(ctx)
	if err != nil {
		return nil, g.finish("init", nil, err)
	}

	res := &InitResult{SessionID: g.sessionID, AlreadyInitialized: already}
	if already {
		res.Message = "Browser already initialized"
		g.record("init", "noop")
		return res, nil
	}

	if err := g.finish("init", map[string]any{"sessionId": g.sessionID}, nil); err != nil {
		return nil, err
	}
	return res, nil
}

// NavigateRequest is the body of /navigate.
type NavigateRequest struct {
	URL       string `json:"url"`
	WaitUntil string `json:"waitUntil"`
}

// NavigateResult is where the page ended up.
type NavigateResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Navigate checks the target, consumes navigation budget and loads the page.
// Target rejections never consume budget.
func (g *Gateway) Navigate(ctx context.Context, req NavigateRequest) (*NavigateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{"url": req.URL}
	if req.URL == "" {
		return nil, g.finish("navigate", detail, validationError("URL is required"))
	}
	if err := utils.ValidateString(req.URL, "url", 1, utils.MaxURLLength, true); err != nil {
		return nil, g.finish("navigate", detail, invalid(err))
	}
	if req.WaitUntil != "" && !session.ValidWaitUntil(req.WaitUntil) {
		return nil, g.finish("navigate", detail,
			validationError("waitUntil must be one of load, domcontentloaded, networkidle, commit"))
	}

	if err := g.policy.ValidateTarget(req.URL); err != nil {
		return nil, g.finish("navigate", detail, err)
	}
	if err := g.requireBrowser(); err != nil {
		return nil, g.finish("navigate", detail, err)
	}
	if err := g.policy.CheckAndConsume(g.sessionID, policy.KindNavigation); err != nil {
		return nil, g.finish("navigate", detail, err)
	}

	res, err := g.session.Navigate(ctx, req.URL, req.WaitUntil)
	if err != nil {
		return nil, g.finish("navigate", detail, err)
	}

	detail["finalUrl"] = res.URL
	detail["title"] = res.Title
	if err := g.finish("navigate", detail, nil); err != nil {
		return nil, err
	}
	return &NavigateResult{URL: res.URL, Title: res.Title}, nil
}

// ClickRequest is the body of /click.
type ClickRequest struct {
	Selector string `json:"selector"`
}

// Click clicks the first element matching the selector.
func (g *Gateway) Click(ctx context.Context, req ClickRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{"selector": req.Selector}
	if req.Selector == "" {
		return g.finish("click", detail, validationError("Selector is required"))
	}
	if err := utils.ValidateSelector(req.Selector, "selector", true); err != nil {
		return g.finish("click", detail, invalid(err))
	}

	page, err := g.session.Page()
	if err != nil {
		return g.finish("click", detail, err)
	}
	if err := g.policy.CheckAndConsume(g.sessionID, policy.KindClick); err != nil {
		return g.finish("click", detail, err)
	}
	if err := ctx.Err(); err != nil {
		return g.finish("click", detail, err)
	}

	return g.finish("click", detail, page.Click(req.Selector, ActionTimeout))
}

// TypeRequest is the body of /type.
type TypeRequest struct {
	Selector   string `json:"selector"`
	Text       string `json:"text"`
	PressEnter bool   `json:"pressEnter"`
}

// Type fills text into the selector. The audit log keeps only the length of
// the text.
func (g *Gateway) Type(ctx context.Context, req TypeRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{
		"selector":   req.Selector,
		"textLength": len(req.Text),
		"pressEnter": req.PressEnter,
	}
	if req.Selector == "" || req.Text == "" {
		return g.finish("type", detail, validationError("Selector and text are required"))
	}
	if err := utils.ValidateSelector(req.Selector, "selector", true); err != nil {
		return g.finish("type", detail, invalid(err))
	}
	if err := utils.ValidateString(req.Text, "text", 1, utils.MaxTextLength, true); err != nil {
		return g.finish("type", detail, invalid(err))
	}

	if err := g.policy.SanitizeInput(req.Text, req.Selector); err != nil {
		return g.finish("type", detail, err)
	}

	page, err := g.session.Page()
	if err != nil {
		return g.finish("type", detail, err)
	}
	if err := g.policy.CheckAndConsume(g.sessionID, policy.KindType); err != nil {
		return g.finish("type", detail, err)
	}
	if err := ctx.Err(); err != nil {
		return g.finish("type", detail, err)
	}

	if err := page.Fill(req.Selector, req.Text, ActionTimeout); err != nil {
		return g.finish("type", detail, err)
	}
	if req.PressEnter {
		if err := page.Press("Enter"); err != nil {
			return g.finish("type", detail, err)
		}
	}
	return g.finish("type", detail, nil)
}

// WaitRequest is the body of /wait. Timeout is in milliseconds.
type WaitRequest struct {
	Selector string `json:"selector"`
	Timeout  int    `json:"timeout"`
}

// ClampWaitTimeout applies the default and ceiling to a /wait timeout given
// in milliseconds.
func ClampWaitTimeout(ms int) time.Duration {
	if ms <= 0 {
		return DefaultWaitTimeout
	}
	d := time.Duration(ms) * time.Millisecond
	if d > MaxWaitTimeout {
		return MaxWaitTimeout
	}
	return d
}

// Wait blocks until the selector appears or the timeout passes.
func (g *Gateway) Wait(ctx context.Context, req WaitRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	timeout := ClampWaitTimeout(req.Timeout)
	detail := map[string]any{"selector": req.Selector, "timeoutMs": timeout.Milliseconds()}
	if req.Selector == "" {
		return g.finish("wait", detail, validationError("Selector is required"))
	}
	if err := utils.ValidateSelector(req.Selector, "selector", true); err != nil {
		return g.finish("wait", detail, invalid(err))
	}

	page, err := g.session.Page()
	if err != nil {
		return g.finish("wait", detail, err)
	}
	if err := ctx.Err(); err != nil {
		return g.finish("wait", detail, err)
	}

	return g.finish("wait", detail, page.WaitForSelector(req.Selector, timeout))
}

// ScrapeRequest is the body of /scrape.
type ScrapeRequest struct {
	Selector string `json:"selector"`
	Limit    int    `json:"limit"`
}

// Scrape returns the trimmed, non-empty visible text of matching elements.
func (g *Gateway) Scrape(ctx context.Context, req ScrapeRequest) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultScrapeLimit
	}
	if limit > MaxScrapeLimit {
		limit = MaxScrapeLimit
	}

	detail := map[string]any{"selector": req.Selector}
	if req.Selector == "" {
		return nil, g.finish("scrape", detail, validationError("Selector is required"))
	}
	if err := utils.ValidateSelector(req.Selector, "selector", true); err != nil {
		return nil, g.finish("scrape", detail, invalid(err))
	}

	raw, err := g.session.Bounded(ctx, ActionTimeout, func(page session.Page) (any, error) {
		return page.EvalOnSelectorAll(req.Selector, scrapeExpression, limit)
	})
	if err != nil {
		return nil, g.finish("scrape", detail, err)
	}

	data := toStrings(raw, limit)
	detail["count"] = len(data)
	if err := g.finish("scrape", detail, nil); err != nil {
		return nil, err
	}
	return data, nil
}

// toStrings converts the engine's evaluation result into a string list.
func toStrings(raw any, limit int) []string {
	out := []string{}
	switch v := raw.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ScreenshotRequest is the body of /screenshot.
type ScreenshotRequest struct {
	Filename string `json:"filename"`
	FullPage bool   `json:"fullPage"`
}

// Screenshot saves a PNG into the session's artifacts directory and returns
// its path.
func (g *Gateway) Screenshot(ctx context.Context, req ScreenshotRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{"filename": req.Filename, "fullPage": req.FullPage}
	if err := utils.ValidateString(req.Filename, "filename", 0, utils.MaxFilenameLength, false); err != nil {
		return "", g.finish("screenshot", detail, invalid(err))
	}
	path, err := g.artifacts.Screenshot(g.sessionID, req.Filename)
	if err != nil {
		return "", g.finish("screenshot", detail, invalid(err))
	}
	detail["path"] = path

	page, err := g.session.Page()
	if err != nil {
		return "", g.finish("screenshot", detail, err)
	}
	if err := ctx.Err(); err != nil {
		return "", g.finish("screenshot", detail, err)
	}

	if err := os.MkdirAll(g.artifacts.SessionDir(g.sessionID), 0o755); err != nil {
		return "", g.finish("screenshot", detail, fmt.Errorf("failed to create artifacts directory: %w", err))
	}
	if err := page.Screenshot(path, req.FullPage); err != nil {
		return "", g.finish("screenshot", detail, err)
	}

	if err := g.finish("screenshot", detail, nil); err != nil {
		return "", err
	}
	return path, nil
}

// ContentRequest is the body of /content.
type ContentRequest struct {
	Format string `json:"format"`
}

// ContentResult is the page markup, plus its text for the text format.
type ContentResult struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Text   string `json:"text,omitempty"`
	Format string `json:"format"`
}

// Content returns the current page's markup. The sanitized format returns
// the markup passed through the UGC policy; the text format adds the
// visible body text.
func (g *Gateway) Content(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	format := req.Format
	if format == "" {
		format = scraper.FormatHTML
	}
	detail := map[string]any{"format": format}
	if !scraper.ValidFormat(format) {
		return nil, g.finish("content", detail, validationError("format must be one of html, text, sanitized"))
	}

	raw, err := g.session.Bounded(ctx, ActionTimeout, func(page session.Page) (any, error) {
		html, err := page.Content()
		if err != nil {
			return nil, err
		}
		title, err := page.Title()
		if err != nil {
			return nil, err
		}
		return &ContentResult{URL: page.URL(), Title: title, HTML: html, Format: format}, nil
	})
	if err != nil {
		return nil, g.finish("content", detail, err)
	}

	res := raw.(*ContentResult)
	title := res.Title
	html := res.HTML
	switch format {
	case scraper.FormatText:
		text, err := g.content.Render(html, format)
		if err != nil {
			return nil, g.finish("content", detail, err)
		}
		res.Text = text
	case scraper.FormatSanitized:
		clean, err := g.content.Render(html, format)
		if err != nil {
			return nil, g.finish("content", detail, err)
		}
		res.HTML = clean
	}

	detail["url"] = res.URL
	detail["titleLength"] = len(title)
	detail["htmlLength"] = len(res.HTML)
	if err := g.finish("content", detail, nil); err != nil {
		return nil, err
	}
	return res, nil
}

// EvaluateRequest is the body of /evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// Evaluate runs a script expression in the page after the keyword check.
func (g *Gateway) Evaluate(ctx context.Context, req EvaluateRequest) (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	detail := map[string]any{"expression": truncate(req.Expression, evalAuditPrefix)}
	if req.Expression == "" {
		return nil, g.finish("evaluate", detail, validationError("Expression is required"))
	}
	if err := utils.ValidateString(req.Expression, "expression", 1, utils.MaxExpressionLength, true); err != nil {
		return nil, g.finish("evaluate", detail, invalid(err))
	}

	if err := g.policy.SanitizeScriptExpression(req.Expression); err != nil {
		return nil, g.finish("evaluate", detail, err)
	}

	result, err := g.session.Bounded(ctx, ActionTimeout, func(page session.Page) (any, error) {
		return page.Evaluate(req.Expression)
	})
	if err != nil {
		return nil, g.finish("evaluate", detail, err)
	}
	if err := g.finish("evaluate", detail, nil); err != nil {
		return nil, err
	}
	return result, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CloseResult reports what Close released.
type CloseResult struct {
	Released bool
	// Warnings carries release errors. Close itself never fails.
	Warnings []string
}

// Close releases the browser and resets the session's counters. Closing
// twice is a no-op the second time.
func (g *Gateway) Close() *CloseResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	released, err := g.session.Close()
	g.policy.Reset(g.sessionID)

	res := &CloseResult{Released: released}
	detail := map[string]any{"released": released}
	if err != nil {
		g.logger.Warn("Browser release incomplete", zap.Error(err))
		res.Warnings = []string{err.Error()}
		detail["warnings"] = res.Warnings
	}

	if aerr := g.finish("close", detail, nil); aerr != nil {
		res.Warnings = append(res.Warnings, aerr.Error())
	}
	return res
}

// Health is a snapshot for /health.
type Health struct {
	Session        session.Status `json:"session"`
	Mode           policy.Mode    `json:"policy"`
	Counts         policy.Counts  `json:"counts"`
	Limits         policy.Limits  `json:"limits"`
	AllowedDomains []string       `json:"allowedDomains"`
	Sensitive      []string       `json:"sensitivePatterns"`
	Blocked        []string       `json:"blockedKeywords"`
	ArtifactsDir   string         `json:"artifactsDir"`
	Uptime         time.Duration  `json:"-"`
}

// Health returns the current state without waiting for a running command.
func (g *Gateway) Health() Health {
	return Health{
		Session:        g.session.Status(),
		Mode:           g.policy.Mode(),
		Counts:         g.policy.Counts(g.sessionID),
		Limits:         g.policy.Limits(),
		AllowedDomains: g.policy.AllowedDomains(),
		Sensitive:      g.policy.SensitivePatterns(),
		Blocked:        g.policy.BlockedKeywords(),
		ArtifactsDir:   g.artifacts.SessionDir(g.sessionID),
		Uptime:         time.Since(g.startedAt),
	}
}
