package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
const MaxHTMLSize = 10 * 1024 * 1024

// Content formats
const (
	FormatHTML      = "html"
	FormatText      = "text"
	FormatSanitized = "sanitized"
)

// ValidFormat reports whether format is one the content command serves.
func ValidFormat(format string) bool {
	switch format {
	case FormatHTML, FormatText, FormatSanitized:
		return true
	}
	return false
}

// ValidateHTML checks HTML size and returns error if too large
func ValidateHTML(html string) error {
	if len(html) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// LoadHTML parses page markup.
func LoadHTML(html string) (*goquery.Document, error) {
	if err := ValidateHTML(html); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return doc, nil
}

// Text returns the visible body text with whitespace collapsed. Script and
// style contents are dropped.
func Text(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body = body.Clone()
	body.Find("script, style, noscript, template").Remove()
	return NormalizeWhitespace(body.Text())
}

// NormalizeWhitespace collapses whitespace runs
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Sanitizer strips scripts, handlers and unsafe attributes from markup.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer using the UGC policy.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize returns html with everything outside the policy removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// Render converts page HTML into the requested format.
func (s *Sanitizer) Render(html, format string) (string, error) {
	switch format {
	case "", FormatHTML:
		return html, nil
	case FormatText:
		doc, err := LoadHTML(html)
		if err != nil {
			return "", err
		}
		return Text(doc), nil
	case FormatSanitized:
		if err := ValidateHTML(html); err != nil {
			return "", err
		}
		return s.Sanitize(html), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}
