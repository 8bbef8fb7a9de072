// Package session owns the single browser session of the gateway process.
//
// States:
//
//	Uninitialized --Init--> Initialized --Navigate--> PageActive
//	      any      --Close--> Closed --Init--> Initialized
//
// The Manager holds at most one browser, one context inside it and one page
// inside that context. The page is created lazily by the first Navigate.
// Close releases page, context and browser in that order and attempts every
// release even when an earlier one fails.
//
// Engine errors are returned to the caller and leave the session usable,
// except errors showing the browser is gone (target closed, disconnected).
// Those detach the session: every later action fails with ErrDetached until
// Close and Init relaunch the browser.
//
// The browser itself is reached through the Engine, Browser, Context and
// Page interfaces; providers/browser implements them on Playwright.
//
// Example Usage:
//
//	mgr := session.NewManager(id.NewSessionID(), engine, session.DefaultConfig(), logger)
//	if _, err := mgr.Init(ctx); err != nil { ... }
//	res, err := mgr.Navigate(ctx, "https://shopify.com/admin", "")
//	page, err := mgr.Page()
package session
