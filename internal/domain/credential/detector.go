package credential

import "strings"

var (
	englishMarkers = []string{
		"two-factor",
		"authentication code",
		"verification code",
		"authenticator",
		"enter code",
		"security code",
	}

	japaneseMarkers = []string{
		"二段階認証",
		"2段階認証",
		"認証コード",
		"確認コード",
		"セキュリティコード",
		"ワンタイムパスワード",
	}
)

// Markers are the substrings a Detector looks for.
type Markers struct {
	// URL markers are matched against the page URL as-is.
	URL []string
	// Text markers are matched against the lowercased page content.
	Text []string
	// Literal markers are matched against the raw page content.
	Literal []string
}

// Detector recognizes a second-factor challenge page.
type Detector struct {
	markers Markers
}

// NewDetector creates a detector from markers. Text markers are lowercased.
func NewDetector(m Markers) *Detector {
	text := make([]string, len(m.Text))
	for i, t := range m.Text {
		text[i] = strings.ToLower(t)
	}
	m.Text = text
	return &Detector{markers: m}
}

// ChallengeDetector decides, right after a password submit, whether the
// site asked for a second factor.
func ChallengeDetector() *Detector {
	return NewDetector(Markers{
		URL:     []string{"2fa", "mfa", "verify", "authentication"},
		Text:    englishMarkers,
		Literal: japaneseMarkers,
	})
}

// PendingDetector decides, while polling, whether the challenge is still on
// screen. It drops the "authentication" URL marker and the "authenticator"
// text marker from the challenge set.
func PendingDetector() *Detector {
	text := make([]string, 0, len(englishMarkers))
	for _, m := range englishMarkers {
		if m != "authenticator" {
			text = append(text, m)
		}
	}
	return NewDetector(Markers{
		URL:     []string{"2fa", "mfa", "verify"},
		Text:    text,
		Literal: japaneseMarkers,
	})
}

// Match reports whether the URL or content shows any marker.
func (d *Detector) Match(url, content string) bool {
	for _, m := range d.markers.URL {
		if strings.Contains(url, m) {
			return true
		}
	}

	lower := strings.ToLower(content)
	for _, m := range d.markers.Text {
		if strings.Contains(lower, m) {
			return true
		}
	}

	for _, m := range d.markers.Literal {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}
