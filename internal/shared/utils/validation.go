package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxURLLength        = 8 * 1024
	MaxSelectorLength   = 2048
	MaxTextLength       = 64 * 1024
	MaxExpressionLength = 64 * 1024
	MaxAuthTypeLength   = 64
	MaxEnvNameLength    = 128
	MaxSecretLength     = 1024
	MaxFilenameLength   = 255
	MaxPatternLength    = 1024
)

var (
	// AuthTypePattern allows alphanumeric, hyphens and underscores
	AuthTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// EnvNamePattern matches a POSIX-style environment variable name
	EnvNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateSelector validates a CSS selector supplied by the caller
func ValidateSelector(selector, fieldName string, required bool) error {
	return ValidateString(selector, fieldName, 1, MaxSelectorLength, required)
}

// ValidateAuthType validates a credential auth type name
func ValidateAuthType(authType string) error {
	if err := ValidateString(authType, "type", 1, MaxAuthTypeLength, true); err != nil {
		return err
	}

	if !AuthTypePattern.MatchString(authType) {
		return fmt.Errorf("type contains invalid characters (only alphanumeric, hyphens, and underscores allowed)")
	}

	return nil
}

// ValidateEnvName validates an environment variable name
func ValidateEnvName(name string) error {
	if err := ValidateString(name, "envVarName", 1, MaxEnvNameLength, true); err != nil {
		return err
	}

	if !EnvNamePattern.MatchString(name) {
		return fmt.Errorf("envVarName must start with a letter or underscore and contain only letters, digits, and underscores")
	}

	return nil
}

// ValidateSecret validates a secret value that will be written to a line-based store
func ValidateSecret(secret, fieldName string, required bool) error {
	if err := ValidateString(secret, fieldName, 1, MaxSecretLength, required); err != nil {
		return err
	}

	if strings.ContainsAny(secret, "\r\n") {
		return fmt.Errorf("%s must not contain line breaks", fieldName)
	}

	return nil
}
