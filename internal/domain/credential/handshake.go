package credential

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

const (
	DefaultPasswordSelector = `input[type="password"]`

	// SubmitTimeout bounds the password fill and the submit click.
	SubmitTimeout = 10 * time.Second
	// NetworkIdleTimeout bounds the settle wait after submit. Running out is
	// not an error: the page may be sitting on a 2FA prompt.
	NetworkIdleTimeout = 30 * time.Second

	DefaultTwoFactorTimeout = 120 * time.Second
	MaxTwoFactorTimeout     = 10 * time.Minute
	DefaultPollInterval     = 2 * time.Second
)

// ErrInvalidPattern is returned when the expected URL pattern does not compile.
var ErrInvalidPattern = errors.New("invalid expectedUrlPattern")

// AuthPage is the slice of a browser page the handshake drives.
type AuthPage interface {
	Fill(selector, value string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	WaitForLoadState(state string, timeout time.Duration) error
	URL() string
	Content() (string, error)
}

// AuthRequest is one /auth call.
type AuthRequest struct {
	Type             string
	PasswordSelector string
	SubmitSelector   string
	Password         string
}

// AuthResult describes a completed password submission.
type AuthResult struct {
	Binding          Binding
	PasswordSelector string
	Submitted        bool
	Requires2FA      bool
	URL              string
	Message          string
}

// ShouldSavePassword reports whether the caller should persist the password
// it supplied.
func (r *AuthResult) ShouldSavePassword() bool {
	return r.Binding.ShouldSave()
}

// WaitResult describes the end of a second-factor wait.
type WaitResult struct {
	Completed bool
	StartURL  string
	URL       string
	Message   string
	Elapsed   time.Duration
}

// Handshake runs the credential and second-factor flow against a page.
type Handshake struct {
	resolver     *Resolver
	store        *EnvFileStore
	challenge    *Detector
	pending      *Detector
	pollInterval time.Duration
	logger       *zap.Logger
	metrics      *monitoring.Metrics
}

// NewHandshake creates a handshake.
func NewHandshake(resolver *Resolver, store *EnvFileStore, logger *zap.Logger) *Handshake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handshake{
		resolver:     resolver,
		store:        store,
		challenge:    ChallengeDetector(),
		pending:      PendingDetector(),
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
}

// WithMetrics adds auth and 2FA result counting
func (h *Handshake) WithMetrics(metrics *monitoring.Metrics) *Handshake {
	h.metrics = metrics
	return h
}

// WithPollInterval overrides the 2FA polling interval.
func (h *Handshake) WithPollInterval(d time.Duration) *Handshake {
	if d > 0 {
		h.pollInterval = d
	}
	return h
}

// Resolve binds the auth type to a secret without touching the page.
func (h *Handshake) Resolve(authType, provided string) (Binding, error) {
	b, err := h.resolver.Resolve(authType, provided)
	if err != nil {
		h.recordAuth("needs_password")
	}
	return b, err
}

// Submit fills the resolved secret, optionally clicks submit and then
// checks the resulting page for a second-factor challenge.
func (h *Handshake) Submit(ctx context.Context, page AuthPage, b Binding, req AuthRequest) (*AuthResult, error) {
	selector := req.PasswordSelector
	if selector == "" {
		selector = DefaultPasswordSelector
	}

	if err := page.Fill(selector, b.Secret, SubmitTimeout); err != nil {
		h.recordAuth("error")
		return nil, fmt.Errorf("failed to fill password: %w", err)
	}

	submitted := req.SubmitSelector != ""
	if submitted {
		if err := page.Click(req.SubmitSelector, SubmitTimeout); err != nil {
			h.recordAuth("error")
			return nil, fmt.Errorf("failed to submit: %w", err)
		}
		if err := page.WaitForLoadState("networkidle", NetworkIdleTimeout); err != nil {
			h.logger.Debug("Network idle wait ended early after submit", zap.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := page.URL()
	content, err := page.Content()
	if err != nil {
		h.recordAuth("error")
		return nil, fmt.Errorf("failed to read page after submit: %w", err)
	}

	res := &AuthResult{
		Binding:          b,
		PasswordSelector: selector,
		Submitted:        submitted,
		URL:              url,
	}

	switch {
	case h.challenge.Match(url, content):
		res.Requires2FA = true
		res.Message = "2FA required - please complete authentication manually"
		h.recordAuth("2fa_required")
	case b.ShouldSave():
		res.Message = "Authenticated successfully"
		h.recordAuth("success")
	default:
		res.Message = fmt.Sprintf("Authenticated using %s", b.EnvVarName)
		h.recordAuth("success")
	}

	h.logger.Info("Auth submitted",
		zap.String("type", b.AuthType),
		zap.String("env_var", b.EnvVarName),
		zap.Bool("from_caller", b.FromCaller),
		zap.Bool("requires_2fa", res.Requires2FA))

	return res, nil
}

// ClampTwoFactorTimeout applies the default and the ceiling.
func ClampTwoFactorTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTwoFactorTimeout
	}
	if d > MaxTwoFactorTimeout {
		return MaxTwoFactorTimeout
	}
	return d
}

// CompilePattern compiles an optional expected-URL pattern.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

// WaitFor2FA polls the page until the second factor looks done or the
// timeout passes. The wait is complete once the URL has moved away from
// where it started and either matches expected (when given) or no longer
// shows a pending marker. Running out of time is reported through
// Completed, not as an error. Context cancellation ends the wait with the
// context's error.
func (h *Handshake) WaitFor2FA(ctx context.Context, page AuthPage, timeout time.Duration, expected *regexp.Regexp) (*WaitResult, error) {
	timeout = ClampTwoFactorTimeout(timeout)

	start := time.Now()
	startURL := page.URL()
	deadline := start.Add(timeout)

	timer := time.NewTimer(h.pollInterval)
	defer timer.Stop()

	completed := false
	for !completed {
		// The last poll lands on the deadline, not one interval past it.
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		timer.Reset(min(h.pollInterval, remaining))

		select {
		case <-ctx.Done():
			h.recordWait("cancelled")
			return nil, ctx.Err()
		case <-timer.C:
		}

		current := page.URL()
		if current == startURL {
			continue
		}

		if expected == nil || expected.MatchString(current) {
			completed = true
			break
		}

		content, err := page.Content()
		if err != nil {
			h.recordWait("error")
			return nil, fmt.Errorf("failed to read page while waiting for 2FA: %w", err)
		}
		if !h.pending.Match(current, content) {
			completed = true
		}
	}

	res := &WaitResult{
		Completed: completed,
		StartURL:  startURL,
		URL:       page.URL(),
		Elapsed:   time.Since(start),
	}
	if completed {
		res.Message = "2FA completed successfully"
		h.recordWait("completed")
	} else {
		res.Message = "2FA timeout - still waiting for authentication"
		h.recordWait("timeout")
	}
	return res, nil
}

// Save persists a secret under name.
func (h *Handshake) Save(name, secret string) error {
	if err := h.store.Save(name, secret); err != nil {
		return err
	}
	h.logger.Info("Password saved", zap.String("env_var", name), zap.String("file", h.store.Path()))
	return nil
}

// EnvVarName returns the variable an auth type binds to.
func (h *Handshake) EnvVarName(authType string) string {
	return h.resolver.EnvVarName(authType)
}

func (h *Handshake) recordAuth(result string) {
	if h.metrics != nil {
		h.metrics.RecordAuthAttempt(result)
	}
}

func (h *Handshake) recordWait(result string) {
	if h.metrics != nil {
		h.metrics.RecordTwoFactorWait(result)
	}
}
