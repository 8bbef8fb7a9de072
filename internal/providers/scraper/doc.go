// Package scraper turns page HTML into the alternate formats of the content
// command.
//
// Built on:
//   - goquery: body text extraction
//   - bluemonday: UGC sanitization of markup
//
// Example Usage:
//
//	doc, err := scraper.LoadHTML(html)
//	text := scraper.Text(doc)
//	clean := scraper.NewSanitizer().Sanitize(html)
package scraper
