package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// File is the optional on-disk policy. Every list in it is added to the
// built-in tables; nothing in a policy file can remove a default entry.
type File struct {
	Mode              string            `yaml:"mode,omitempty"`
	AllowedDomains    []string          `yaml:"allowedDomains,omitempty"`
	SensitivePatterns []string          `yaml:"sensitivePatterns,omitempty"`
	BlockedKeywords   []string          `yaml:"blockedKeywords,omitempty"`
	CredentialAliases map[string]string `yaml:"credentialAliases,omitempty"`
}

// LoadFile reads and parses a policy file. An empty path yields an empty
// policy.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	return ParseFile(data)
}

// ParseFile parses policy YAML.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	f.Mode = strings.ToLower(strings.TrimSpace(f.Mode))
	if f.Mode != "" && f.Mode != string(ModeOpen) && f.Mode != string(ModeAllowlist) {
		return nil, fmt.Errorf("policy file: invalid mode %q", f.Mode)
	}

	for name, envVar := range f.CredentialAliases {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(envVar) == "" {
			return nil, fmt.Errorf("policy file: credential alias entries need both a type and an env var name")
		}
	}

	return &f, nil
}
