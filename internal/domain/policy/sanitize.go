package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// Default denylist tables. Both are heuristics: they catch the obvious
// cases and nothing more. A determined caller can always phrase around them.
var (
	DefaultSensitivePatterns = []string{
		`password`,
		`credit.*card`,
		`ssn`,
		`social.*security`,
	}

	DefaultBlockedKeywords = []string{
		"delete",
		"drop",
		"remove",
		"cookie",
		"localstorage",
	}
)

// Sanitizer holds the compiled denylist tables.
type Sanitizer struct {
	patterns []*regexp.Regexp
	keywords []string
}

// NewSanitizer compiles the default tables plus any extras. Extras only
// widen the tables.
func NewSanitizer(extraPatterns, extraKeywords []string) (*Sanitizer, error) {
	s := &Sanitizer{}

	for _, p := range append(append([]string{}, DefaultSensitivePatterns...), extraPatterns...) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid sensitive pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, re)
	}

	seen := make(map[string]bool)
	for _, k := range append(append([]string{}, DefaultBlockedKeywords...), extraKeywords...) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		s.keywords = append(s.keywords, k)
	}

	return s, nil
}

// CheckInput rejects text or selectors that look like sensitive data.
func (s *Sanitizer) CheckInput(text, selector string) error {
	for _, re := range s.patterns {
		if re.MatchString(text) || re.MatchString(selector) {
			return &Rejection{
				Reason:  ReasonSensitiveInput,
				Message: "Potentially sensitive input blocked",
			}
		}
	}
	return nil
}

// CheckExpression rejects script expressions containing a blocked keyword.
func (s *Sanitizer) CheckExpression(expr string) error {
	lower := strings.ToLower(expr)
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			return &Rejection{
				Reason:  ReasonBlockedKeyword,
				Message: "Expression contains blocked keywords",
			}
		}
	}
	return nil
}

// Patterns returns the source of every compiled sensitive pattern.
func (s *Sanitizer) Patterns() []string {
	out := make([]string, len(s.patterns))
	for i, re := range s.patterns {
		out[i] = strings.TrimPrefix(re.String(), "(?i)")
	}
	return out
}

// Keywords returns the blocked keyword table.
func (s *Sanitizer) Keywords() []string {
	out := make([]string, len(s.keywords))
	copy(out, s.keywords)
	return out
}
