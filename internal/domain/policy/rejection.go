package policy

import "fmt"

// Reason is the machine-readable cause of a rejection.
type Reason string

const (
	ReasonMalformedURL     Reason = "malformed_url"
	ReasonDomainNotAllowed Reason = "domain_not_allowed"
	ReasonSensitiveInput   Reason = "sensitive_input"
	ReasonBlockedKeyword   Reason = "blocked_keyword"
	ReasonRateLimited      Reason = "rate_limited"
)

// Rejection is returned by every policy check that refuses a command.
// Rejections are non-fatal; the session stays usable.
type Rejection struct {
	Reason  Reason
	Message string

	// AllowedDomains is set for domain_not_allowed.
	AllowedDomains []string
	// Kind and Limit are set for rate_limited.
	Kind  Kind
	Limit int
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("policy rejected (%s): %s", r.Reason, r.Message)
}

func malformed(raw string, cause error) *Rejection {
	msg := fmt.Sprintf("invalid URL %q", raw)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Rejection{Reason: ReasonMalformedURL, Message: msg}
}
