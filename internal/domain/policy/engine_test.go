package policy

import (
	"errors"
	"sync"
	"testing"

	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func requireReason(t *testing.T, err error, want Reason) *Rejection {
	t.Helper()
	require.Error(t, err)
	var r *Rejection
	require.True(t, errors.As(err, &r), "expected *Rejection, got %T", err)
	assert.Equal(t, want, r.Reason)
	return r
}

func TestValidateTargetAllowlist(t *testing.T) {
	e := newEngine(t, Options{Mode: ModeAllowlist})

	tests := []struct {
		name    string
		url     string
		allowed bool
	}{
		{"apex", "https://shopify.com/admin", true},
		{"www prefix", "https://www.shopify.com/x", true},
		{"subdomain", "https://store.myshopify.com/", true},
		{"deep subdomain", "https://a.b.vercel.app/", true},
		{"uppercase host", "https://SHOPIFY.COM/", true},
		{"localhost with port", "http://localhost:3000/", true},
		{"loopback ip", "http://127.0.0.1:8080/x", true},
		{"unlisted", "https://evil.com/", false},
		{"suffix without dot", "https://evilshopify.com/", false},
		{"allowed as prefix", "https://shopify.com.evil.com/", false},
		{"allowed in path", "https://evil.com/shopify.com", false},
		{"allowed in userinfo", "https://shopify.com@evil.com/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ValidateTarget(tt.url)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			r := requireReason(t, err, ReasonDomainNotAllowed)
			assert.Contains(t, r.AllowedDomains, "shopify.com")
		})
	}
}

func TestValidateTargetWWWSymmetry(t *testing.T) {
	for _, mode := range []Mode{ModeOpen, ModeAllowlist} {
		e := newEngine(t, Options{Mode: mode})
		assert.Equal(t,
			e.ValidateTarget("https://shopify.com/x") == nil,
			e.ValidateTarget("https://www.shopify.com/x") == nil,
			"mode %s", mode)
		assert.Equal(t,
			e.ValidateTarget("https://evil.com/x") == nil,
			e.ValidateTarget("https://www.evil.com/x") == nil,
			"mode %s", mode)
	}
}

func TestValidateTargetMalformed(t *testing.T) {
	for _, mode := range []Mode{ModeOpen, ModeAllowlist} {
		e := newEngine(t, Options{Mode: mode})
		for _, raw := range []string{"", "   ", "not a url", "/relative/path", "://missing-scheme", "http://[::1"} {
			requireReason(t, e.ValidateTarget(raw), ReasonMalformedURL)
		}
	}
}

func TestValidateTargetOpen(t *testing.T) {
	e := newEngine(t, Options{Mode: ModeOpen})
	assert.NoError(t, e.ValidateTarget("https://evil.com/"))
	assert.NoError(t, e.ValidateTarget("http://example.org:8080/a?b=c"))
	assert.Equal(t, ModeOpen, e.Mode())
}

func TestExtraDomains(t *testing.T) {
	e := newEngine(t, Options{
		Mode:         ModeAllowlist,
		ExtraDomains: []string{" Example.COM ", "", "www.internal.test"},
	})

	assert.NoError(t, e.ValidateTarget("https://app.example.com/"))
	assert.NoError(t, e.ValidateTarget("https://internal.test/"))
	assert.Contains(t, e.AllowedDomains(), "example.com")
	assert.Contains(t, e.AllowedDomains(), "internal.test")
	assert.Len(t, e.AllowedDomains(), len(DefaultAllowedDomains)+2)
}

func TestSanitizeInput(t *testing.T) {
	e := newEngine(t, Options{})

	blocked := []struct{ text, selector string }{
		{"my password is x", "#q"},
		{"PASSWORD", "#q"},
		{"PaSsWoRd", "#q"},
		{"hello", "input[name=password]"},
		{"credit card 4111", "#q"},
		{"Credit-Card", "#q"},
		{"ssn 123", "#q"},
		{"my social security", "#q"},
	}
	for _, in := range blocked {
		requireReason(t, e.SanitizeInput(in.text, in.selector), ReasonSensitiveInput)
	}

	assert.NoError(t, e.SanitizeInput("hello world", "#search"))
}

func TestSanitizeScriptExpression(t *testing.T) {
	e := newEngine(t, Options{})

	for _, expr := range []string{
		"document.cookie",
		"localStorage.clear()",
		"el.remove()",
		"DELETE",
		"db.drop()",
	} {
		requireReason(t, e.SanitizeScriptExpression(expr), ReasonBlockedKeyword)
	}

	assert.NoError(t, e.SanitizeScriptExpression("document.title"))
}

func TestPolicyFileWidensTables(t *testing.T) {
	file, err := ParseFile([]byte(`
allowedDomains:
  - corp.example
sensitivePatterns:
  - "api[_-]?key"
blockedKeywords:
  - fetch
credentialAliases:
  corp: CORP_SSO_PASSWORD
`))
	require.NoError(t, err)

	e := newEngine(t, Options{Mode: ModeAllowlist, PolicyFile: file})

	assert.NoError(t, e.ValidateTarget("https://sso.corp.example/login"))
	assert.NoError(t, e.ValidateTarget("https://shopify.com/"))
	requireReason(t, e.SanitizeInput("my API_KEY", "#q"), ReasonSensitiveInput)
	requireReason(t, e.SanitizeInput("password", "#q"), ReasonSensitiveInput)
	requireReason(t, e.SanitizeScriptExpression("fetch('/x')"), ReasonBlockedKeyword)
	requireReason(t, e.SanitizeScriptExpression("document.cookie"), ReasonBlockedKeyword)
	assert.Equal(t, "CORP_SSO_PASSWORD", file.CredentialAliases["corp"])
}

func TestPolicyFileMode(t *testing.T) {
	file, err := ParseFile([]byte("mode: open\n"))
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	e := newEngine(t, Options{Mode: ModeAllowlist, PolicyFile: file, Logger: zap.New(core)})
	assert.Equal(t, ModeOpen, e.Mode())

	overrides := logs.FilterMessage("Policy file overrides configured mode").All()
	require.Len(t, overrides, 1)
	assert.Equal(t, "allowlist", overrides[0].ContextMap()["configured"])
	assert.Equal(t, "open", overrides[0].ContextMap()["mode"])

	// Same mode, or no configured mode: nothing to report.
	core, logs = observer.New(zap.WarnLevel)
	newEngine(t, Options{Mode: ModeOpen, PolicyFile: file, Logger: zap.New(core)})
	newEngine(t, Options{PolicyFile: file, Logger: zap.New(core)})
	assert.Zero(t, logs.Len())

	_, err = ParseFile([]byte("mode: everything\n"))
	assert.Error(t, err)

	_, err = ParseFile([]byte("sensitivePatterns: [\n"))
	assert.Error(t, err)
}

func TestPolicyFileInvalidPattern(t *testing.T) {
	_, err := NewEngine(Options{PolicyFile: &File{SensitivePatterns: []string{"("}}})
	assert.Error(t, err)
}

func TestLoadFileMissingPath(t *testing.T) {
	f, err := LoadFile("")
	require.NoError(t, err)
	assert.Empty(t, f.AllowedDomains)

	_, err = LoadFile("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestNewEngineRejectsUnknownMode(t *testing.T) {
	_, err := NewEngine(Options{Mode: "closed"})
	assert.Error(t, err)
}

func TestNavigationScenario(t *testing.T) {
	e := newEngine(t, Options{Mode: ModeAllowlist})
	sess := id.NewSessionID()

	// Accepted target consumes budget
	require.NoError(t, e.ValidateTarget("https://shopify.com/admin"))
	require.NoError(t, e.CheckAndConsume(sess, KindNavigation))
	assert.Equal(t, 1, e.Counts(sess).Navigations)

	// Rejected target never reaches the ledger
	r := requireReason(t, e.ValidateTarget("https://evil.com/"), ReasonDomainNotAllowed)
	assert.NotEmpty(t, r.AllowedDomains)
	assert.Equal(t, 1, e.Counts(sess).Navigations)
}

func TestConcurrentEngineUse(t *testing.T) {
	e := newEngine(t, Options{Limits: Limits{Navigations: 100, Clicks: 100, Types: 100}})
	sess := id.NewSessionID()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.ValidateTarget("https://shopify.com/")
			_ = e.CheckAndConsume(sess, KindClick)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, e.Counts(sess).Clicks)
}
