package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"go.uber.org/zap"
)

// State is the lifecycle state of the browser session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StatePageActive    State = "page_active"
	StateClosed        State = "closed"
)

var (
	// ErrNotInitialized is returned when no browser has been launched.
	ErrNotInitialized = errors.New("browser not initialized")
	// ErrNoActivePage is returned when the browser is up but nothing has
	// been navigated yet.
	ErrNoActivePage = errors.New("no active page")
	// ErrDetached is returned once the browser connection has been lost.
	// Only close followed by init recovers.
	ErrDetached = errors.New("browser connection lost")
	// ErrActionTimeout is returned when a bounded page call runs past its
	// limit. The page is dropped; the next Navigate opens a fresh one.
	ErrActionTimeout = errors.New("page call timed out")
)

// Config holds launch settings.
type Config struct {
	Headless          bool
	LaunchArgs        []string
	ViewportWidth     int
	ViewportHeight    int
	UserAgent         string
	NavigationTimeout time.Duration
	DefaultTimeout    time.Duration
}

// DefaultConfig returns the stock launch settings.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		LaunchArgs:        []string{"--no-sandbox", "--disable-dev-shm-usage"},
		ViewportWidth:     1280,
		ViewportHeight:    720,
		UserAgent:         "Orchestra-Plugin-Browser/1.0",
		NavigationTimeout: 30 * time.Second,
		DefaultTimeout:    15 * time.Second,
	}
}

// NavigateResult is where a navigation ended up.
type NavigateResult struct {
	URL   string
	Title string
}

// Status is a point-in-time view for health reporting.
type Status struct {
	SessionID    id.SessionID `json:"sessionId"`
	State        State        `json:"state"`
	Browser      bool         `json:"browser"`
	Page         bool         `json:"page"`
	Detached     bool         `json:"detached"`
	Launches     int          `json:"launches"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastActivity *time.Time   `json:"lastActivity,omitempty"`
}

// Manager owns the one browser session of the process: at most one
// browser, one context inside it and one page inside that.
//
// opMu serializes lifecycle changes (init, navigate, close). mu guards the
// fields and is only held briefly, so Status never waits behind a slow
// launch or navigation.
type Manager struct {
	opMu sync.Mutex

	mu           sync.RWMutex
	id           id.SessionID
	state        State   // Protected by mu
	browser      Browser // Protected by mu
	bctx         Context // Protected by mu
	page         Page    // Protected by mu
	detached     bool    // Protected by mu
	launches     int     // Protected by mu
	createdAt    time.Time
	lastActivity *time.Time // Protected by mu

	engine  Engine
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a manager in the uninitialized state. Nothing is
// launched until Init.
func NewManager(sessionID id.SessionID, engine Engine, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		id:        sessionID,
		state:     StateUninitialized,
		createdAt: time.Now(),
		engine:    engine,
		cfg:       cfg,
		logger:    logger,
	}
}

// WithMetrics adds state and engine call tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	if metrics != nil {
		metrics.SetSessionState(string(m.State()))
	}
	return m
}

// ID returns the session identifier.
func (m *Manager) ID() id.SessionID {
	return m.id
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Init launches the browser and its context. Calling it again while a
// browser is up does nothing and reports alreadyInitialized. From Closed it
// launches a fresh browser.
func (m *Manager) Init(ctx context.Context) (alreadyInitialized bool, err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	switch m.State() {
	case StateInitialized, StatePageActive:
		return true, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	// Launch WITHOUT holding mu
	timer := monitoring.NewTimer(m.metrics, "launch")
	browser, err := m.engine.Launch(ctx, LaunchOptions{
		Headless: m.cfg.Headless,
		Args:     m.cfg.LaunchArgs,
	})
	timer.Stop(err)
	if err != nil {
		return false, fmt.Errorf("failed to launch browser: %w", err)
	}

	timer = monitoring.NewTimer(m.metrics, "new_context")
	bctx, err := browser.NewContext(ContextOptions{
		ViewportWidth:     m.cfg.ViewportWidth,
		ViewportHeight:    m.cfg.ViewportHeight,
		UserAgent:         m.cfg.UserAgent,
		IgnoreHTTPSErrors: false,
		DefaultTimeout:    m.cfg.DefaultTimeout,
	})
	timer.Stop(err)
	if err != nil {
		if cerr := browser.Close(); cerr != nil {
			m.logger.Warn("Failed to close browser after context error", zap.Error(cerr))
		}
		return false, fmt.Errorf("failed to create browser context: %w", err)
	}

	m.mu.Lock()
	m.browser = browser
	m.bctx = bctx
	m.page = nil
	m.detached = false
	m.launches++
	m.setStateLocked(StateInitialized)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncBrowserLaunches()
	}
	m.logger.Info("Browser launched",
		zap.String("session_id", m.id.String()),
		zap.Bool("headless", m.cfg.Headless))

	return false, nil
}

// Navigate opens url in the session's page, creating the page on first use.
func (m *Manager) Navigate(ctx context.Context, url, waitUntil string) (*NavigateResult, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.RLock()
	state, detached, bctx, page := m.state, m.detached, m.bctx, m.page
	m.mu.RUnlock()

	switch {
	case state == StateUninitialized || state == StateClosed:
		return nil, ErrNotInitialized
	case detached:
		return nil, ErrDetached
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if page == nil {
		timer := monitoring.NewTimer(m.metrics, "new_page")
		p, err := bctx.NewPage()
		timer.Stop(err)
		m.observe(err)
		if err != nil {
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		page = p

		m.mu.Lock()
		m.page = p
		m.setStateLocked(StatePageActive)
		m.mu.Unlock()
	}

	if waitUntil == "" {
		waitUntil = LoadStateDOMContentLoaded
	}

	tracked := &trackedPage{m: m, inner: page}
	if err := tracked.Goto(url, GotoOptions{WaitUntil: waitUntil, Timeout: m.cfg.NavigationTimeout}); err != nil {
		return nil, err
	}

	title, err := tracked.Title()
	if err != nil {
		return nil, err
	}

	return &NavigateResult{URL: tracked.URL(), Title: title}, nil
}

// Page returns the active page. Calls through it are timed and watched for
// lost connections.
func (m *Manager) Page() (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.state == StateUninitialized || m.state == StateClosed:
		return nil, ErrNotInitialized
	case m.detached:
		return nil, ErrDetached
	case m.page == nil:
		return nil, ErrNoActivePage
	}
	return &trackedPage{m: m, inner: m.page}, nil
}

// Bounded runs fn against the active page and stops waiting once timeout
// passes or ctx ends. Engine calls without their own timeout (script
// evaluation, content) go through here. On overrun the page is closed and
// dropped so the abandoned call cannot outlive the command; the session
// falls back to Initialized.
func (m *Manager) Bounded(ctx context.Context, timeout time.Duration, fn func(Page) (any, error)) (any, error) {
	page, err := m.Page()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = m.cfg.DefaultTimeout
	}

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(page)
		done <- result{val: val, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		m.abandonPage("timeout")
		return nil, fmt.Errorf("%w after %s; page closed, navigate again to continue", ErrActionTimeout, timeout)
	case <-ctx.Done():
		m.abandonPage("cancelled")
		return nil, ctx.Err()
	}
}

// abandonPage drops the current page and closes it in the background.
func (m *Manager) abandonPage(reason string) {
	m.mu.Lock()
	page := m.page
	m.page = nil
	if m.state == StatePageActive {
		m.setStateLocked(StateInitialized)
	}
	m.mu.Unlock()

	if page == nil {
		return
	}
	m.logger.Warn("Page call abandoned; closing page",
		zap.String("session_id", m.id.String()),
		zap.String("reason", reason))
	go func() {
		if err := page.Close(); err != nil {
			m.logger.Debug("Failed to close abandoned page", zap.Error(err))
		}
	}()
}

// Close releases page, context and browser in that order. Every release is
// attempted even when an earlier one fails; the errors are joined. The
// session ends up Closed either way. released reports whether there was
// anything to release.
func (m *Manager) Close() (released bool, err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	page, bctx, browser := m.page, m.bctx, m.browser
	m.page, m.bctx, m.browser = nil, nil, nil
	m.detached = false
	m.setStateLocked(StateClosed)
	m.mu.Unlock()

	var errs []error
	if page != nil {
		if err := page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if bctx != nil {
		if err := bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if browser != nil {
		if err := browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}

	released = page != nil || bctx != nil || browser != nil
	if released {
		m.logger.Info("Browser closed", zap.String("session_id", m.id.String()), zap.Int("release_errors", len(errs)))
	}
	return released, errors.Join(errs...)
}

// Shutdown closes the session and stops the engine driver.
func (m *Manager) Shutdown() error {
	_, closeErr := m.Close()
	return errors.Join(closeErr, m.engine.Shutdown())
}

// Status returns a snapshot without touching the engine.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Status{
		SessionID: m.id,
		State:     m.state,
		Browser:   m.browser != nil,
		Page:      m.page != nil,
		Detached:  m.detached,
		Launches:  m.launches,
		CreatedAt: m.createdAt,
	}
	if m.lastActivity != nil {
		t := *m.lastActivity
		s.LastActivity = &t
	}
	return s
}

// observe marks the session detached when err shows the browser is gone.
func (m *Manager) observe(err error) {
	if err == nil {
		now := time.Now()
		m.mu.Lock()
		m.lastActivity = &now
		m.mu.Unlock()
		return
	}
	gone := IsDisconnected(err)
	if !gone {
		m.mu.RLock()
		browser := m.browser
		m.mu.RUnlock()
		gone = browser != nil && !browser.IsConnected()
	}
	if !gone {
		return
	}

	m.mu.Lock()
	already := m.detached
	m.detached = true
	m.mu.Unlock()

	if !already {
		m.logger.Warn("Browser connection lost; close and init to recover",
			zap.String("session_id", m.id.String()),
			zap.Error(err))
	}
}

// isCurrent reports whether page is still the session's page. Results from
// an abandoned page must not affect the session.
func (m *Manager) isCurrent(page Page) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.page == page
}

func (m *Manager) setStateLocked(state State) {
	m.state = state
	if m.metrics != nil {
		m.metrics.SetSessionState(string(state))
	}
}
