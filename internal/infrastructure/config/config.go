package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Policy modes
const (
	PolicyOpen      = "open"
	PolicyAllowlist = "allowlist"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Policy    PolicyConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"BROWSER_MCP_PORT" default:"9222"`
	Host string `envconfig:"BROWSER_HOST" default:"127.0.0.1"`
}

// BrowserConfig holds browser session configuration.
type BrowserConfig struct {
	Headless     bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	ArtifactsDir string `envconfig:"BROWSER_ARTIFACTS_DIR" default:"artifacts/browser"`
	EnvFile      string `envconfig:"BROWSER_ENV_FILE" default:".env"`
}

// PolicyConfig holds policy engine configuration.
type PolicyConfig struct {
	Mode           string   `envconfig:"BROWSER_POLICY" default:"allowlist"`
	AllowedDomains []string `envconfig:"BROWSER_ALLOWED_DOMAINS"`
	File           string   `envconfig:"BROWSER_POLICY_FILE"`
	MaxNavigations int      `envconfig:"BROWSER_MAX_NAV" default:"10"`
	MaxClicks      int      `envconfig:"BROWSER_MAX_CLICK" default:"50"`
	MaxTypes       int      `envconfig:"BROWSER_MAX_TYPE" default:"30"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds HTTP request rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// PerIP gives every client address its own bucket instead of one
	// shared bucket.
	PerIP bool `envconfig:"RATE_LIMIT_PER_IP" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "9222",
			Host: "127.0.0.1",
		},
		Browser: BrowserConfig{
			Headless:     true,
			ArtifactsDir: "artifacts/browser",
			EnvFile:      ".env",
		},
		Policy: PolicyConfig{
			Mode:           PolicyAllowlist,
			MaxNavigations: 10,
			MaxClicks:      50,
			MaxTypes:       30,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
			PerIP:             false,
		},
	}
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	switch c.Policy.Mode {
	case PolicyOpen, PolicyAllowlist:
	default:
		return fmt.Errorf("invalid BROWSER_POLICY %q: must be %q or %q", c.Policy.Mode, PolicyOpen, PolicyAllowlist)
	}

	if c.Policy.MaxNavigations <= 0 || c.Policy.MaxClicks <= 0 || c.Policy.MaxTypes <= 0 {
		return fmt.Errorf("operation ceilings must be positive (nav=%d click=%d type=%d)",
			c.Policy.MaxNavigations, c.Policy.MaxClicks, c.Policy.MaxTypes)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("BROWSER_MCP_PORT must not be empty")
	}

	if c.Browser.ArtifactsDir == "" {
		return fmt.Errorf("BROWSER_ARTIFACTS_DIR must not be empty")
	}

	return nil
}
