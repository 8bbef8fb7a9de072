package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/audit"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/credential"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/policy"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/browser-gateway/internal/providers/scraper"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/paths"
	"go.uber.org/zap"
)

// Deps are the collaborators a Gateway drives.
type Deps struct {
	Policy    *policy.Engine
	Session   *session.Manager
	Audit     *audit.Log
	Handshake *credential.Handshake
	Artifacts paths.Artifacts
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
}

// Gateway runs commands against the single browser session. Every command
// holds mu for its whole policy, engine and audit cycle, so commands never
// interleave. Health reads snapshots and never takes mu.
type Gateway struct {
	mu sync.Mutex

	sessionID id.SessionID
	policy    *policy.Engine
	session   *session.Manager
	audit     *audit.Log
	handshake *credential.Handshake
	artifacts paths.Artifacts
	content   *scraper.Sanitizer
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	startedAt time.Time
}

// New wires a gateway. Policy, Session, Audit and Handshake are required.
func New(deps Deps) (*Gateway, error) {
	switch {
	case deps.Policy == nil:
		return nil, errors.New("gateway: policy engine is required")
	case deps.Session == nil:
		return nil, errors.New("gateway: session manager is required")
	case deps.Audit == nil:
		return nil, errors.New("gateway: audit log is required")
	case deps.Handshake == nil:
		return nil, errors.New("gateway: credential handshake is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		sessionID: deps.Session.ID(),
		policy:    deps.Policy,
		session:   deps.Session,
		audit:     deps.Audit,
		handshake: deps.Handshake,
		artifacts: deps.Artifacts,
		content:   scraper.NewSanitizer(),
		logger:    logger,
		metrics:   deps.Metrics,
		startedAt: time.Now(),
	}, nil
}

// SessionID returns the identifier of the process's session.
func (g *Gateway) SessionID() id.SessionID {
	return g.sessionID
}

// Shutdown closes the session, stops the engine driver and closes the audit
// log. It waits for the running command to finish.
func (g *Gateway) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	if err := g.session.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("session shutdown: %w", err))
	}
	g.policy.Reset(g.sessionID)
	if err := g.audit.Close(); err != nil {
		errs = append(errs, fmt.Errorf("audit close: %w", err))
	}
	return errors.Join(errs...)
}

// finish audits a command and converts its error. Accepted operations whose
// audit write fails are reported as audit errors. For rejections and engine
// failures the original error wins; a failed audit write is only logged.
func (g *Gateway) finish(op string, detail map[string]any, err error) error {
	if err == nil {
		if aerr := g.audit.Record(op, audit.OutcomeAccepted, detail); aerr != nil {
			g.record(op, "audit_error")
			g.logger.Error("Audit write failed", zap.String("op", op), zap.Error(aerr))
			return &Error{Kind: KindAudit, Code: CodeAuditError, Message: "Failed to write audit record", Err: aerr}
		}
		g.record(op, string(audit.OutcomeAccepted))
		return nil
	}

	gerr := AsError(err)

	outcome := audit.OutcomeFailed
	if gerr.IsRejection() {
		outcome = audit.OutcomeRejected
	}

	rec := make(map[string]any, len(detail)+2)
	for k, v := range detail {
		rec[k] = v
	}
	rec["code"] = gerr.Code
	rec["error"] = gerr.Message

	if aerr := g.audit.Record(op, outcome, rec); aerr != nil {
		g.logger.Error("Audit write failed", zap.String("op", op), zap.Error(aerr))
		gerr = withAuditWarning(gerr, aerr)
	}
	g.record(op, string(outcome))

	if outcome == audit.OutcomeFailed {
		g.logger.Warn("Command failed",
			zap.String("op", op),
			zap.String("code", gerr.Code),
			zap.Error(err))
	} else {
		g.logger.Debug("Command rejected",
			zap.String("op", op),
			zap.String("code", gerr.Code),
			zap.String("message", gerr.Message))
	}
	return gerr
}

// withAuditWarning copies gerr with the audit failure added to its
// details. The command's own error stays the primary outcome.
func withAuditWarning(gerr *Error, aerr error) *Error {
	out := *gerr
	out.Details = make(map[string]any, len(gerr.Details)+1)
	for k, v := range gerr.Details {
		out.Details[k] = v
	}
	out.Details[DetailAuditWarning] = "Failed to write audit record: " + aerr.Error()
	return &out
}

func (g *Gateway) record(op, outcome string) {
	if g.metrics != nil {
		g.metrics.RecordCommand(op, outcome)
	}
}

// requireBrowser fails when no browser is up. Detached sessions fail as
// engine errors.
func (g *Gateway) requireBrowser() error {
	st := g.session.Status()
	switch {
	case !st.Browser:
		return session.ErrNotInitialized
	case st.Detached:
		return session.ErrDetached
	}
	return nil
}
