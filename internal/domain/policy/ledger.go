package policy

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
)

// Kind is a rate-limited operation kind.
type Kind string

const (
	KindNavigation Kind = "navigation"
	KindClick      Kind = "click"
	KindType       Kind = "type"
)

// Limits are the per-session ceilings for each kind.
type Limits struct {
	Navigations int `json:"navigations"`
	Clicks      int `json:"clicks"`
	Types       int `json:"types"`
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{Navigations: 10, Clicks: 50, Types: 30}
}

func (l Limits) of(kind Kind) (int, bool) {
	switch kind {
	case KindNavigation:
		return l.Navigations, true
	case KindClick:
		return l.Clicks, true
	case KindType:
		return l.Types, true
	}
	return 0, false
}

// Counts is the number of admitted operations of each kind.
type Counts struct {
	Navigations int `json:"navigations"`
	Clicks      int `json:"clicks"`
	Types       int `json:"types"`
}

func (c *Counts) slot(kind Kind) *int {
	switch kind {
	case KindNavigation:
		return &c.Navigations
	case KindClick:
		return &c.Clicks
	case KindType:
		return &c.Types
	}
	return nil
}

// Ledger tracks operation counts per session. Counts only grow until the
// session is reset; there is no time-based refill.
type Ledger struct {
	mu     sync.Mutex
	limits Limits
	counts map[id.SessionID]*Counts // Protected by mu
}

// NewLedger creates a ledger with the given ceilings.
func NewLedger(limits Limits) *Ledger {
	return &Ledger{
		limits: limits,
		counts: make(map[id.SessionID]*Counts),
	}
}

// CheckAndConsume admits one operation of kind if the session is under its
// ceiling, incrementing the count. Over the ceiling it returns a rate_limited
// rejection and leaves the count unchanged.
func (l *Ledger) CheckAndConsume(sessionID id.SessionID, kind Kind) error {
	limit, ok := l.limits.of(kind)
	if !ok {
		return fmt.Errorf("unknown operation kind %q", kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counts[sessionID]
	if !ok {
		c = &Counts{}
		l.counts[sessionID] = c
	}

	n := c.slot(kind)
	if *n >= limit {
		return &Rejection{
			Reason:  ReasonRateLimited,
			Message: fmt.Sprintf("%s limit (%d) exceeded", kindLabel(kind), limit),
			Kind:    kind,
			Limit:   limit,
		}
	}
	*n++
	return nil
}

// Reset deletes the session's counts.
func (l *Ledger) Reset(sessionID id.SessionID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, sessionID)
}

// Counts returns a copy of the session's counts.
func (l *Ledger) Counts(sessionID id.SessionID) Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.counts[sessionID]; ok {
		return *c
	}
	return Counts{}
}

// Limits returns the configured ceilings.
func (l *Ledger) Limits() Limits {
	return l.limits
}

func kindLabel(kind Kind) string {
	switch kind {
	case KindNavigation:
		return "Navigation"
	case KindClick:
		return "Click"
	case KindType:
		return "Type"
	}
	return string(kind)
}
