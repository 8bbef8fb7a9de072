package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/credential"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/policy"
	"github.com/GriffinCanCode/browser-gateway/internal/domain/session"
)

// Kind groups errors by how the caller should react.
type Kind string

const (
	// KindValidation: the request itself is malformed.
	KindValidation Kind = "validation"
	// KindPolicy: the request is well formed but refused.
	KindPolicy Kind = "policy"
	// KindState: the session is not in a state that allows the command.
	KindState Kind = "state"
	// KindCredential: no secret is available for the requested auth type.
	KindCredential Kind = "credential"
	// KindEngine: the browser engine failed. The session stays usable
	// unless the browser itself is gone.
	KindEngine Kind = "engine"
	// KindAudit: the operation ran but could not be recorded.
	KindAudit Kind = "audit"
)

// Error codes beyond the policy rejection reasons
const (
	CodeInvalidRequest  = "invalid_request"
	CodeNotInitialized  = "not_initialized"
	CodeNoActivePage    = "no_active_page"
	CodeNeedsPassword   = "needs_password"
	CodeBrowserDetached = "browser_detached"
	CodeEngineError     = "engine_error"
	CodeEngineTimeout   = "engine_timeout"
	CodeCancelled       = "cancelled"
	CodeAuditError      = "audit_error"
)

// DetailAuditWarning is set on a failed or rejected command's details when
// its audit record could not be written.
const DetailAuditWarning = "auditWarning"

// Messages returned to callers for state errors
const (
	MsgNotInitialized = "Browser not initialized. Call /init first"
	MsgNoActivePage   = "No active page. Navigate first"
	MsgDetached       = "Browser connection lost. Close and init to recover"
)

// Error is the single error type commands return.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Details are merged into the error response body.
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRejection reports whether the command was refused before it reached the
// engine.
func (e *Error) IsRejection() bool {
	switch e.Kind {
	case KindValidation, KindPolicy, KindState, KindCredential:
		return true
	}
	return false
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func invalid(err error) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRequest, Message: err.Error(), Err: err}
}

// AsError classifies err. Nil stays nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	var rej *policy.Rejection
	if errors.As(err, &rej) {
		e := &Error{Kind: KindPolicy, Code: string(rej.Reason), Message: rej.Message, Err: err}
		switch rej.Reason {
		case policy.ReasonDomainNotAllowed:
			e.Details = map[string]any{"allowedDomains": rej.AllowedDomains}
		case policy.ReasonRateLimited:
			e.Details = map[string]any{"kind": rej.Kind, "limit": rej.Limit}
		}
		return e
	}

	var pr *credential.PasswordRequired
	if errors.As(err, &pr) {
		return &Error{
			Kind:    KindCredential,
			Code:    CodeNeedsPassword,
			Message: pr.Message(),
			Details: map[string]any{
				"needsPassword": true,
				"envVarName":    pr.EnvVarName,
				"type":          pr.AuthType,
				"message":       pr.Message(),
				"prompt":        pr.Prompt(),
			},
			Err: err,
		}
	}

	switch {
	case errors.Is(err, session.ErrNotInitialized):
		return &Error{Kind: KindState, Code: CodeNotInitialized, Message: MsgNotInitialized, Err: err}
	case errors.Is(err, session.ErrNoActivePage):
		return &Error{Kind: KindState, Code: CodeNoActivePage, Message: MsgNoActivePage, Err: err}
	case errors.Is(err, session.ErrDetached):
		return &Error{Kind: KindEngine, Code: CodeBrowserDetached, Message: MsgDetached, Err: err}
	case errors.Is(err, session.ErrActionTimeout):
		return &Error{Kind: KindEngine, Code: CodeEngineTimeout, Message: err.Error(), Err: err}
	case errors.Is(err, credential.ErrInvalidPattern),
		errors.Is(err, credential.ErrInvalidEnvName),
		errors.Is(err, credential.ErrInvalidSecret):
		return invalid(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindEngine, Code: CodeCancelled, Message: err.Error(), Err: err}
	}

	return &Error{Kind: KindEngine, Code: CodeEngineError, Message: err.Error(), Err: err}
}
