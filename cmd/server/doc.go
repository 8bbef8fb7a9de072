// Package main is the entry point for the browser gateway.
//
// The gateway drives one headless Chromium session on behalf of local
// callers. Every command passes the policy engine (domain allowlist,
// input and script denylists, per-session operation ceilings) before it
// touches the browser, and every outcome is appended to the session's
// audit log.
//
// Architecture:
//
//	Caller (HTTP, localhost) → Gateway → Policy Engine
//	                                   → Session (Playwright Chromium)
//	                                   → Credential Handshake (.env)
//	                                   → Audit Log (artifacts/browser/<session>)
//
// Configuration:
//   - Environment variables (BROWSER_MCP_PORT, BROWSER_POLICY, BROWSER_HEADLESS, ...)
//   - CLI flags (override env vars)
//   - Optional YAML policy file (BROWSER_POLICY_FILE or -policy-file)
//
// Usage:
//
//	# Defaults: 127.0.0.1:9222, allowlist policy, headless
//	./server
//
//	# Open policy, visible browser, debug logs
//	./server -policy open -headless=false -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, browser released
package main
