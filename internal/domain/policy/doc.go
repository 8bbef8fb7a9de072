// Package policy gates every gateway command before it reaches the browser.
//
// Checks:
//   - ValidateTarget: navigation targets, in open or allowlist mode
//   - SanitizeInput: typed text and selectors against sensitive patterns
//   - SanitizeScriptExpression: evaluated scripts against blocked keywords
//   - CheckAndConsume: per-session operation ceilings
//
// Allowlist matching works on the normalized hostname (lowercased, one
// leading "www." removed) and accepts a host equal to an entry or ending in
// "."+entry. It never matches on prefixes, paths or userinfo.
//
// The sanitizer tables are denylists. They stop the obvious cases and are
// not a security boundary. A policy file may add entries but never remove
// the defaults.
//
// Every refusal is a *Rejection carrying a machine-readable Reason. Target
// and input rejections are returned before the ledger is consulted, so they
// never consume operation budget.
package policy
