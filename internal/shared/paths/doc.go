// Package paths defines the on-disk layout of the gateway's artifacts.
//
// # Directory Structure
//
//	<artifacts>/              (BROWSER_ARTIFACTS_DIR, default artifacts/browser)
//	  └── <sessionId>/
//	      ├── operations.log  (audit trail)
//	      └── *.png           (screenshots)
//
// # Usage
//
//	layout := paths.NewArtifacts(cfg.Browser.ArtifactsDir)
//	dir := layout.SessionDir(sessionID)
//	shot, err := layout.Screenshot(sessionID, "checkout.png")
package paths
