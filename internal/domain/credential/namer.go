package credential

import (
	"strings"
)

// Namer maps an auth type to the environment variable holding its secret.
type Namer interface {
	EnvVarName(authType string) string
}

// ConventionNamer derives names deterministically: uppercase, hyphens to
// underscores, "_PASSWORD" suffix. "my-site" becomes MY_SITE_PASSWORD.
type ConventionNamer struct{}

// EnvVarName implements Namer.
func (ConventionNamer) EnvVarName(authType string) string {
	return strings.ToUpper(strings.ReplaceAll(authType, "-", "_")) + "_PASSWORD"
}

// DefaultAliases are the pre-registered auth types.
func DefaultAliases() map[string]string {
	return map[string]string{
		"shopify-store": "SHOPIFY_STORE_PASSWORD",
		"staging":       "STAGING_PASSWORD",
		"preview":       "PREVIEW_PASSWORD",
	}
}

// AliasTable resolves pre-registered auth types and falls back to another
// Namer for everything else.
type AliasTable struct {
	aliases  map[string]string
	fallback Namer
}

// NewAliasTable builds a table from the defaults plus extra entries. Extra
// entries may add types or rebind a default type to a different variable.
func NewAliasTable(extra map[string]string, fallback Namer) *AliasTable {
	if fallback == nil {
		fallback = ConventionNamer{}
	}

	aliases := DefaultAliases()
	for authType, envVar := range extra {
		authType = strings.TrimSpace(authType)
		envVar = strings.TrimSpace(envVar)
		if authType == "" || envVar == "" {
			continue
		}
		aliases[authType] = envVar
	}

	return &AliasTable{aliases: aliases, fallback: fallback}
}

// EnvVarName implements Namer.
func (a *AliasTable) EnvVarName(authType string) string {
	if name, ok := a.aliases[authType]; ok {
		return name
	}
	return a.fallback.EnvVarName(authType)
}

// Aliases returns a copy of the table.
func (a *AliasTable) Aliases() map[string]string {
	out := make(map[string]string, len(a.aliases))
	for k, v := range a.aliases {
		out[k] = v
	}
	return out
}
