package policy

import (
	"fmt"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"go.uber.org/zap"
)

// Mode selects how navigation targets are validated.
type Mode string

const (
	// ModeOpen accepts any well-formed absolute URL.
	ModeOpen Mode = "open"
	// ModeAllowlist accepts only hosts inside the allowed domain set.
	ModeAllowlist Mode = "allowlist"
)

// Options configures an Engine.
type Options struct {
	Mode         Mode
	ExtraDomains []string
	Limits       Limits
	PolicyFile   *File
	Logger       *zap.Logger
}

// Engine is the stateless gatekeeper in front of every command, plus the
// per-session operation ledger.
type Engine struct {
	mode      Mode
	domains   *DomainSet
	sanitizer *Sanitizer
	ledger    *Ledger
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// NewEngine builds an engine from options. A policy file, when given, widens
// the domain and pattern tables and may override the mode.
func NewEngine(opts Options) (*Engine, error) {
	file := opts.PolicyFile
	if file == nil {
		file = &File{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := opts.Mode
	if file.Mode != "" {
		if opts.Mode != "" && Mode(file.Mode) != opts.Mode {
			logger.Warn("Policy file overrides configured mode",
				zap.String("configured", string(opts.Mode)),
				zap.String("mode", file.Mode))
		}
		mode = Mode(file.Mode)
	}
	if mode == "" {
		mode = ModeAllowlist
	}
	if mode != ModeOpen && mode != ModeAllowlist {
		return nil, fmt.Errorf("unknown policy mode %q", mode)
	}

	sanitizer, err := NewSanitizer(file.SensitivePatterns, file.BlockedKeywords)
	if err != nil {
		return nil, err
	}

	limits := opts.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}

	return &Engine{
		mode:      mode,
		domains:   NewDomainSet(DefaultAllowedDomains, opts.ExtraDomains, file.AllowedDomains),
		sanitizer: sanitizer,
		ledger:    NewLedger(limits),
		logger:    logger,
	}, nil
}

// WithMetrics adds rejection counting to the engine
func (e *Engine) WithMetrics(metrics *monitoring.Metrics) *Engine {
	e.metrics = metrics
	return e
}

// ValidateTarget checks a navigation target against the active mode.
func (e *Engine) ValidateTarget(raw string) error {
	u, err := ParseTarget(raw)
	if err != nil {
		return e.reject(err)
	}

	if e.mode == ModeOpen {
		return nil
	}

	if !e.domains.Contains(u.Hostname()) {
		return e.reject(&Rejection{
			Reason:         ReasonDomainNotAllowed,
			Message:        "Domain not allowed",
			AllowedDomains: e.domains.List(),
		})
	}
	return nil
}

// SanitizeInput rejects typed text or selectors that look sensitive.
func (e *Engine) SanitizeInput(text, selector string) error {
	return e.reject(e.sanitizer.CheckInput(text, selector))
}

// SanitizeScriptExpression rejects expressions with a blocked keyword.
func (e *Engine) SanitizeScriptExpression(expr string) error {
	return e.reject(e.sanitizer.CheckExpression(expr))
}

// CheckAndConsume admits one operation against the session's ceiling.
func (e *Engine) CheckAndConsume(sessionID id.SessionID, kind Kind) error {
	return e.reject(e.ledger.CheckAndConsume(sessionID, kind))
}

// Reset clears the session's counters.
func (e *Engine) Reset(sessionID id.SessionID) {
	e.ledger.Reset(sessionID)
}

// Counts returns the session's counters.
func (e *Engine) Counts(sessionID id.SessionID) Counts {
	return e.ledger.Counts(sessionID)
}

// Limits returns the configured ceilings.
func (e *Engine) Limits() Limits {
	return e.ledger.Limits()
}

// AllowedDomains returns the allowed domain set in insertion order.
func (e *Engine) AllowedDomains() []string {
	return e.domains.List()
}

// SensitivePatterns returns the input denylist, defaults plus policy file
// additions.
func (e *Engine) SensitivePatterns() []string {
	return e.sanitizer.Patterns()
}

// BlockedKeywords returns the script keyword denylist.
func (e *Engine) BlockedKeywords() []string {
	return e.sanitizer.Keywords()
}

// Mode returns the active mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

func (e *Engine) reject(err error) error {
	if err == nil {
		return nil
	}
	if r, ok := err.(*Rejection); ok {
		e.logger.Debug("Policy rejection",
			zap.String("reason", string(r.Reason)),
			zap.String("message", r.Message))
		if e.metrics != nil {
			e.metrics.RecordPolicyRejection(string(r.Reason))
		}
	}
	return err
}
