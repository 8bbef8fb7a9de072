package credential

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockPage is a testify mock of AuthPage.
type mockPage struct {
	mock.Mock
}

func (m *mockPage) Fill(selector, value string, timeout time.Duration) error {
	return m.Called(selector, value, timeout).Error(0)
}

func (m *mockPage) Click(selector string, timeout time.Duration) error {
	return m.Called(selector, timeout).Error(0)
}

func (m *mockPage) WaitForLoadState(state string, timeout time.Duration) error {
	return m.Called(state, timeout).Error(0)
}

func (m *mockPage) URL() string {
	return m.Called().String(0)
}

func (m *mockPage) Content() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// scriptedPage walks through a list of URLs, one per URL() call, and
// repeats the last.
type scriptedPage struct {
	mu      sync.Mutex
	urls    []string
	content string
	calls   int
}

func (p *scriptedPage) Fill(string, string, time.Duration) error     { return nil }
func (p *scriptedPage) Click(string, time.Duration) error            { return nil }
func (p *scriptedPage) WaitForLoadState(string, time.Duration) error { return nil }
func (p *scriptedPage) Content() (string, error)                     { return p.content, nil }

func (p *scriptedPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.urls) {
		i = len(p.urls) - 1
	}
	p.calls++
	return p.urls[i]
}

func staticSource(values map[string]string) Source {
	return SourceFunc(func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
}

func newHandshake(t *testing.T, stored map[string]string) *Handshake {
	t.Helper()
	store := NewEnvFileStore(filepath.Join(t.TempDir(), ".env"))
	store.setenv = func(string, string) error { return nil }
	return NewHandshake(NewResolver(nil, staticSource(stored)), store, nil).
		WithPollInterval(5 * time.Millisecond)
}

// authenticate resolves and submits the way the gateway's /auth does.
func authenticate(ctx context.Context, h *Handshake, page AuthPage, req AuthRequest) (*AuthResult, error) {
	b, err := h.Resolve(req.Type, req.Password)
	if err != nil {
		return nil, err
	}
	return h.Submit(ctx, page, b, req)
}

func TestAuthenticateWithStoredSecret(t *testing.T) {
	h := newHandshake(t, map[string]string{"STAGING_PASSWORD": "s3cret"})

	page := new(mockPage)
	page.On("Fill", DefaultPasswordSelector, "s3cret", SubmitTimeout).Return(nil)
	page.On("Click", "#login", SubmitTimeout).Return(nil)
	page.On("WaitForLoadState", "networkidle", NetworkIdleTimeout).Return(errors.New("Timeout 30000ms exceeded"))
	page.On("URL").Return("https://staging.example/app")
	page.On("Content").Return("<h1>Welcome</h1>", nil)

	res, err := authenticate(context.Background(), h, page, AuthRequest{Type: "staging", SubmitSelector: "#login"})
	require.NoError(t, err)

	assert.False(t, res.Requires2FA)
	assert.True(t, res.Submitted)
	assert.False(t, res.ShouldSavePassword())
	assert.Equal(t, "Authenticated using STAGING_PASSWORD", res.Message)
	page.AssertExpectations(t)
}

func TestAuthenticateWithoutSubmit(t *testing.T) {
	h := newHandshake(t, map[string]string{"PREVIEW_PASSWORD": "pw"})

	page := new(mockPage)
	page.On("Fill", "#pw", "pw", SubmitTimeout).Return(nil)
	page.On("URL").Return("https://preview.example/")
	page.On("Content").Return("", nil)

	res, err := authenticate(context.Background(), h, page, AuthRequest{Type: "preview", PasswordSelector: "#pw"})
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.Equal(t, "#pw", res.PasswordSelector)

	page.AssertNotCalled(t, "Click", mock.Anything, mock.Anything)
	page.AssertNotCalled(t, "WaitForLoadState", mock.Anything, mock.Anything)
}

func TestAuthenticateCallerPasswordDetects2FA(t *testing.T) {
	metrics := monitoring.NewMetrics()
	h := newHandshake(t, nil).WithMetrics(metrics)

	page := new(mockPage)
	page.On("Fill", DefaultPasswordSelector, "typed", SubmitTimeout).Return(nil)
	page.On("Click", "button[type=submit]", SubmitTimeout).Return(nil)
	page.On("WaitForLoadState", "networkidle", NetworkIdleTimeout).Return(nil)
	page.On("URL").Return("https://accounts.example/challenge")
	page.On("Content").Return("<label>二段階認証</label>", nil)

	res, err := authenticate(context.Background(), h, page, AuthRequest{
		Type:           "my-site",
		SubmitSelector: "button[type=submit]",
		Password:       "typed",
	})
	require.NoError(t, err)

	assert.True(t, res.Requires2FA)
	assert.True(t, res.ShouldSavePassword())
	assert.Equal(t, "MY_SITE_PASSWORD", res.Binding.EnvVarName)
	assert.Equal(t, "https://accounts.example/challenge", res.URL)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthAttempts.WithLabelValues("2fa_required")))
}

func TestAuthenticateCallerPasswordNo2FA(t *testing.T) {
	h := newHandshake(t, nil)

	page := new(mockPage)
	page.On("Fill", mock.Anything, "typed", SubmitTimeout).Return(nil)
	page.On("URL").Return("https://site.example/home")
	page.On("Content").Return("ok", nil)

	res, err := authenticate(context.Background(), h, page, AuthRequest{Type: "site", Password: "typed"})
	require.NoError(t, err)
	assert.Equal(t, "Authenticated successfully", res.Message)
	assert.True(t, res.ShouldSavePassword())
}

func TestAuthenticateNeedsPasswordNeverTouchesPage(t *testing.T) {
	h := newHandshake(t, nil)
	page := new(mockPage)

	_, err := authenticate(context.Background(), h, page, AuthRequest{Type: "staging"})
	var pr *PasswordRequired
	require.True(t, errors.As(err, &pr))
	assert.Equal(t, "STAGING_PASSWORD", pr.EnvVarName)

	page.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthenticateFillError(t *testing.T) {
	h := newHandshake(t, map[string]string{"STAGING_PASSWORD": "x"})

	page := new(mockPage)
	page.On("Fill", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("Timeout 10000ms exceeded"))

	_, err := authenticate(context.Background(), h, page, AuthRequest{Type: "staging"})
	assert.ErrorContains(t, err, "Timeout 10000ms exceeded")
}

func TestWaitFor2FACompletesOnURLChange(t *testing.T) {
	h := newHandshake(t, nil)
	page := &scriptedPage{urls: []string{
		"https://shop.test/2fa",
		"https://shop.test/2fa",
		"https://shop.test/admin",
	}}

	res, err := h.WaitFor2FA(context.Background(), page, time.Second, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, "https://shop.test/2fa", res.StartURL)
	assert.Equal(t, "https://shop.test/admin", res.URL)
	assert.Equal(t, "2FA completed successfully", res.Message)
}

func TestWaitFor2FAPatternMatch(t *testing.T) {
	h := newHandshake(t, nil)
	re, err := CompilePattern(`/admin$`)
	require.NoError(t, err)

	page := &scriptedPage{
		urls:    []string{"https://shop.test/login", "https://shop.test/verify", "https://shop.test/admin"},
		content: "Enter code",
	}

	res, err := h.WaitFor2FA(context.Background(), page, time.Second, re)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, "https://shop.test/admin", res.URL)
}

func TestWaitFor2FAMarkersGoneWithoutPatternMatch(t *testing.T) {
	h := newHandshake(t, nil)
	re, err := CompilePattern(`/dashboard`)
	require.NoError(t, err)

	// URL moved and no pending marker remains, even though the pattern
	// never matches
	page := &scriptedPage{
		urls:    []string{"https://shop.test/login", "https://shop.test/home"},
		content: "<h1>Home</h1>",
	}

	res, err := h.WaitFor2FA(context.Background(), page, time.Second, re)
	require.NoError(t, err)
	assert.True(t, res.Completed)
}

func TestWaitFor2FATimeout(t *testing.T) {
	metrics := monitoring.NewMetrics()
	h := newHandshake(t, nil).WithMetrics(metrics)
	page := &scriptedPage{urls: []string{"https://shop.test/2fa"}}

	res, err := h.WaitFor2FA(context.Background(), page, 30*time.Millisecond, nil)
	require.NoError(t, err, "timeout is a result, not an error")
	assert.False(t, res.Completed)
	assert.Equal(t, "2FA timeout - still waiting for authentication", res.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TwoFactorWaits.WithLabelValues("timeout")))
}

func TestWaitFor2FATimeoutNotStretchedByPollInterval(t *testing.T) {
	h := newHandshake(t, nil).WithPollInterval(time.Second)
	page := &scriptedPage{urls: []string{"https://a.example/2fa"}}

	start := time.Now()
	res, err := h.WaitFor2FA(context.Background(), page, 150*time.Millisecond, nil)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Less(t, time.Since(start), 600*time.Millisecond)
	assert.GreaterOrEqual(t, res.Elapsed, 150*time.Millisecond)
}

func TestWaitFor2FAPollsAtDeadline(t *testing.T) {
	h := newHandshake(t, nil).WithPollInterval(time.Second)
	// Start URL, then moved on by the time the capped last poll runs.
	page := &scriptedPage{urls: []string{"https://a.example/2fa", "https://a.example/home"}}

	res, err := h.WaitFor2FA(context.Background(), page, 100*time.Millisecond, nil)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Less(t, res.Elapsed, 600*time.Millisecond)
}

func TestWaitFor2FAStillPending(t *testing.T) {
	h := newHandshake(t, nil)
	re, err := CompilePattern(`/admin`)
	require.NoError(t, err)

	// URL changed but the challenge is still on screen
	page := &scriptedPage{
		urls:    []string{"https://shop.test/login", "https://shop.test/login?step=2"},
		content: "Security code",
	}

	res, err := h.WaitFor2FA(context.Background(), page, 40*time.Millisecond, re)
	require.NoError(t, err)
	assert.False(t, res.Completed)
}

func TestWaitFor2FACancelled(t *testing.T) {
	h := newHandshake(t, nil).WithPollInterval(time.Hour)
	page := &scriptedPage{urls: []string{"https://shop.test/2fa"}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := h.WaitFor2FA(ctx, page, time.Minute, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompilePattern(t *testing.T) {
	re, err := CompilePattern("")
	assert.NoError(t, err)
	assert.Nil(t, re)

	_, err = CompilePattern("([")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestClampTwoFactorTimeout(t *testing.T) {
	assert.Equal(t, DefaultTwoFactorTimeout, ClampTwoFactorTimeout(0))
	assert.Equal(t, DefaultTwoFactorTimeout, ClampTwoFactorTimeout(-time.Second))
	assert.Equal(t, 5*time.Second, ClampTwoFactorTimeout(5*time.Second))
	assert.Equal(t, MaxTwoFactorTimeout, ClampTwoFactorTimeout(time.Hour))
}
