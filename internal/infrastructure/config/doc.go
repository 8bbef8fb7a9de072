// Package config provides 12-factor configuration management for the browser gateway.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listener settings (port, host)
//   - Browser: Headless toggle, artifacts directory, env file path
//   - Policy: Policy mode, allowlist extension, policy file, operation ceilings
//   - Logging: Log level and output format
//   - RateLimit: HTTP request rate limiting
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	fmt.Printf("Gateway listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - BROWSER_MCP_PORT, BROWSER_HOST
//   - BROWSER_HEADLESS, BROWSER_ARTIFACTS_DIR, BROWSER_ENV_FILE
//   - BROWSER_POLICY, BROWSER_ALLOWED_DOMAINS, BROWSER_POLICY_FILE
//   - BROWSER_MAX_NAV, BROWSER_MAX_CLICK, BROWSER_MAX_TYPE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
