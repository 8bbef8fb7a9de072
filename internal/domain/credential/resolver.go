package credential

import (
	"fmt"
	"os"
)

// Source looks up a stored secret by variable name.
type Source interface {
	Lookup(name string) (string, bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(name string) (string, bool)

// Lookup implements Source.
func (f SourceFunc) Lookup(name string) (string, bool) {
	return f(name)
}

// EnvSource reads the process environment.
var EnvSource Source = SourceFunc(os.LookupEnv)

// Binding is a resolved credential.
type Binding struct {
	AuthType   string
	EnvVarName string
	Secret     string
	// Stored reports whether a non-empty secret was found in the source.
	Stored bool
	// FromCaller reports whether Secret is the caller-supplied password.
	FromCaller bool
}

// ShouldSave reports whether the caller supplied a secret the store does
// not yet have.
func (b Binding) ShouldSave() bool {
	return b.FromCaller && !b.Stored
}

// PasswordRequired is returned when neither the store nor the caller has a
// secret for the auth type.
type PasswordRequired struct {
	AuthType   string
	EnvVarName string
}

func (e *PasswordRequired) Error() string {
	return e.Message()
}

// Message is the human-readable explanation.
func (e *PasswordRequired) Message() string {
	return fmt.Sprintf("Password required for %s. Please provide password in request body or set %s in .env file.",
		e.AuthType, e.EnvVarName)
}

// Prompt is the question to put to the operator.
func (e *PasswordRequired) Prompt() string {
	return fmt.Sprintf("Please enter the password for %s:", e.AuthType)
}

// Resolver binds auth types to secrets.
type Resolver struct {
	namer  Namer
	source Source
}

// NewResolver creates a resolver. A nil namer uses the default alias table
// and a nil source reads the process environment.
func NewResolver(namer Namer, source Source) *Resolver {
	if namer == nil {
		namer = NewAliasTable(nil, ConventionNamer{})
	}
	if source == nil {
		source = EnvSource
	}
	return &Resolver{namer: namer, source: source}
}

// EnvVarName returns the variable name for an auth type.
func (r *Resolver) EnvVarName(authType string) string {
	return r.namer.EnvVarName(authType)
}

// Resolve finds the secret for authType. A caller-supplied password wins
// over the stored one. With neither, it returns *PasswordRequired.
func (r *Resolver) Resolve(authType, provided string) (Binding, error) {
	name := r.namer.EnvVarName(authType)
	stored, _ := r.source.Lookup(name)

	b := Binding{
		AuthType:   authType,
		EnvVarName: name,
		Stored:     stored != "",
	}

	switch {
	case provided != "":
		b.Secret = provided
		b.FromCaller = true
	case stored != "":
		b.Secret = stored
	default:
		return b, &PasswordRequired{AuthType: authType, EnvVarName: name}
	}
	return b, nil
}
