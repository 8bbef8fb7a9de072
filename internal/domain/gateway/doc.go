// Package gateway dispatches commands against the single browser session.
//
// Each command runs the same cycle while holding the gateway's command
// mutex:
//
//	validate request -> policy checks -> session state -> budget -> engine -> audit
//
// Rejections at any step are audited with outcome "rejected", engine
// failures with "failed", and completed operations with "accepted". Every
// error returned is a *Error whose Kind decides the HTTP status.
//
// Budget is consumed only after the request has passed validation, the
// policy checks and the state check. An engine failure after admission
// keeps the consumed budget.
//
// Example Usage:
//
//	gw, err := gateway.New(gateway.Deps{
//		Policy:    policyEngine,
//		Session:   manager,
//		Audit:     auditLog,
//		Handshake: handshake,
//		Artifacts: paths.NewArtifacts(cfg.Browser.ArtifactsDir),
//		Logger:    logger,
//	})
//	res, err := gw.Navigate(ctx, gateway.NavigateRequest{URL: "https://shopify.com/admin"})
package gateway
