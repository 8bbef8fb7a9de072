/*
Package browser implements the session engine interfaces on Playwright.

# Overview

Engine drives Chromium through playwright-go. The Playwright driver is
installed and started on the first Launch, not at construction, so a gateway
that never receives /init never spawns a node process. Shutdown stops the
driver; browsers must already be closed.

Each session type maps one to one:

	session.Engine  -> *Engine        (playwright.Playwright)
	session.Browser -> *chromeBrowser (playwright.Browser)
	session.Context -> *chromeContext (playwright.BrowserContext)
	session.Page    -> *chromePage    (playwright.Page)

Durations are converted to the millisecond floats Playwright expects. A zero
duration leaves the Playwright default in place.

# Example Usage

	engine := browser.NewEngine(logger)
	mgr := session.NewManager(id.NewSessionID(), engine, session.DefaultConfig(), logger)
	defer mgr.Shutdown()
*/
package browser
