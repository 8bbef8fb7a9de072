package policy

import (
	"net/url"
	"strings"
)

// DefaultAllowedDomains are the apex domains reachable in allowlist mode
// before any extension.
var DefaultAllowedDomains = []string{
	"localhost",
	"127.0.0.1",
	"vercel.app",
	"shopify.com",
	"myshopify.com",
	"sanity.io",
	"sanity.studio",
	"supabase.co",
	"netlify.app",
	"github.io",
}

// DomainSet is an immutable set of allowed apex domains.
type DomainSet struct {
	entries map[string]struct{}
	ordered []string
}

// NewDomainSet builds a set from any number of domain lists. Entries are
// trimmed, lowercased and stripped of a leading "www." and a trailing dot;
// blanks are dropped.
func NewDomainSet(lists ...[]string) *DomainSet {
	s := &DomainSet{entries: make(map[string]struct{})}
	for _, list := range lists {
		for _, d := range list {
			d = normalizeHost(d)
			if d == "" {
				continue
			}
			if _, ok := s.entries[d]; ok {
				continue
			}
			s.entries[d] = struct{}{}
			s.ordered = append(s.ordered, d)
		}
	}
	return s
}

// Contains reports whether host equals or is a subdomain of an entry.
// Matching is suffix based on dot boundaries, so "evilshopify.com" does not
// match "shopify.com".
func (s *DomainSet) Contains(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for {
		if _, ok := s.entries[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
}

// List returns the entries in insertion order.
func (s *DomainSet) List() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// ParseTarget parses a navigation target and requires an absolute URL with
// a scheme.
func ParseTarget(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, malformed(raw, nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, malformed(raw, err)
	}
	if !u.IsAbs() {
		return nil, malformed(raw, nil)
	}
	return u, nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}
