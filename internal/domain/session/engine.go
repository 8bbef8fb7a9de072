package session

import (
	"context"
	"strings"
	"time"
)

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless bool
	Args     []string
}

// ContextOptions configures a browser context and the pages it creates.
type ContextOptions struct {
	ViewportWidth     int
	ViewportHeight    int
	UserAgent         string
	IgnoreHTTPSErrors bool
	// DefaultTimeout applies to page calls made without an explicit timeout.
	DefaultTimeout time.Duration
}

// GotoOptions configures a navigation.
type GotoOptions struct {
	WaitUntil string
	Timeout   time.Duration
}

// Engine launches browsers. Implementations wrap a real automation driver.
type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
	// Shutdown stops the driver. Browsers must be closed first.
	Shutdown() error
}

// Browser is a launched browser process.
type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	// IsConnected reports whether the driver still reaches the browser.
	IsConnected() bool
	Close() error
}

// Context is an isolated browser context owned by a Browser.
type Context interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a tab owned by a Context.
type Page interface {
	Goto(url string, opts GotoOptions) error
	Click(selector string, timeout time.Duration) error
	Fill(selector, value string, timeout time.Duration) error
	Press(key string) error
	WaitForSelector(selector string, timeout time.Duration) error
	WaitForLoadState(state string, timeout time.Duration) error
	EvalOnSelectorAll(selector, expression string, arg any) (any, error)
	Evaluate(expression string) (any, error)
	Screenshot(path string, fullPage bool) error
	Content() (string, error)
	Title() (string, error)
	URL() string
	Close() error
}

// Load states accepted by Goto and WaitForLoadState
const (
	LoadStateLoad             = "load"
	LoadStateDOMContentLoaded = "domcontentloaded"
	LoadStateNetworkIdle      = "networkidle"
	LoadStateCommit           = "commit"
)

// ValidWaitUntil reports whether s is a navigation wait condition the
// engines understand.
func ValidWaitUntil(s string) bool {
	switch s {
	case LoadStateLoad, LoadStateDOMContentLoaded, LoadStateNetworkIdle, LoadStateCommit:
		return true
	}
	return false
}

// Driver-level messages seen once the browser is gone. Page errors such as
// net::ERR_INTERNET_DISCONNECTED or script exceptions must not match.
var disconnectMarkers = []string{
	"target page, context or browser has been closed",
	"browser has been closed",
	"browser has disconnected",
	"playwright connection closed",
}

// IsDisconnected reports whether an engine error is the driver saying the
// browser process is no longer reachable.
func IsDisconnected(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range disconnectMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
