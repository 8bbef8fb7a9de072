package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "9222", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	// Browser config
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "artifacts/browser", cfg.Browser.ArtifactsDir)
	assert.Equal(t, ".env", cfg.Browser.EnvFile)

	// Policy config
	assert.Equal(t, PolicyAllowlist, cfg.Policy.Mode)
	assert.Empty(t, cfg.Policy.AllowedDomains)
	assert.Equal(t, 10, cfg.Policy.MaxNavigations)
	assert.Equal(t, 50, cfg.Policy.MaxClicks)
	assert.Equal(t, 30, cfg.Policy.MaxTypes)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().Browser, cfg.Browser)
	assert.Equal(t, Default().Policy.Mode, cfg.Policy.Mode)
	assert.Equal(t, Default().RateLimit, cfg.RateLimit)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"BROWSER_MCP_PORT":        "9333",
		"BROWSER_HOST":            "0.0.0.0",
		"BROWSER_HEADLESS":        "false",
		"BROWSER_ARTIFACTS_DIR":   "/tmp/artifacts",
		"BROWSER_ENV_FILE":        "/tmp/gateway.env",
		"BROWSER_POLICY":          "open",
		"BROWSER_ALLOWED_DOMAINS": "example.com,internal.test",
		"BROWSER_POLICY_FILE":     "/etc/gateway/policy.yaml",
		"BROWSER_MAX_NAV":         "3",
		"BROWSER_MAX_CLICK":       "4",
		"BROWSER_MAX_TYPE":        "5",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"RATE_LIMIT_RPS":          "500",
		"RATE_LIMIT_BURST":        "1000",
		"RATE_LIMIT_ENABLED":      "false",
		"RATE_LIMIT_PER_IP":       "true",
	}

	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, "9333", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Verify browser config
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/tmp/artifacts", cfg.Browser.ArtifactsDir)
	assert.Equal(t, "/tmp/gateway.env", cfg.Browser.EnvFile)

	// Verify policy config
	assert.Equal(t, PolicyOpen, cfg.Policy.Mode)
	assert.Equal(t, []string{"example.com", "internal.test"}, cfg.Policy.AllowedDomains)
	assert.Equal(t, "/etc/gateway/policy.yaml", cfg.Policy.File)
	assert.Equal(t, 3, cfg.Policy.MaxNavigations)
	assert.Equal(t, 4, cfg.Policy.MaxClicks)
	assert.Equal(t, 5, cfg.Policy.MaxTypes)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify rate limit config
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.RateLimit.PerIP)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("BROWSER_MCP_PORT", "3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, PolicyAllowlist, cfg.Policy.Mode)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown policy mode", key: "BROWSER_POLICY", value: "permissive"},
		{name: "zero navigation ceiling", key: "BROWSER_MAX_NAV", value: "0"},
		{name: "negative click ceiling", key: "BROWSER_MAX_CLICK", value: "-1"},
		{name: "non-numeric type ceiling", key: "BROWSER_MAX_TYPE", value: "lots"},
		{name: "non-boolean headless", key: "BROWSER_HEADLESS", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPolicyModes(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		wantMode string
	}{
		{name: "default", mode: "", wantMode: PolicyAllowlist},
		{name: "open", mode: "open", wantMode: PolicyOpen},
		{name: "allowlist", mode: "allowlist", wantMode: PolicyAllowlist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mode != "" {
				t.Setenv("BROWSER_POLICY", tt.mode)
			}

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, cfg.Policy.Mode)
		})
	}
}
