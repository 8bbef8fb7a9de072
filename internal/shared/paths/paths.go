package paths

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Default names inside a session directory
const (
	AuditLogName      = "operations.log"
	DefaultScreenshot = "screenshot.png"
)

// Artifacts resolves paths under the artifacts root.
type Artifacts struct {
	Root string
}

// NewArtifacts returns the layout rooted at root.
func NewArtifacts(root string) Artifacts {
	return Artifacts{Root: root}
}

// SessionDir returns the session's directory.
func (a Artifacts) SessionDir(sessionID fmt.Stringer) string {
	return filepath.Join(a.Root, sessionID.String())
}

// AuditLog returns the session's audit log path.
func (a Artifacts) AuditLog(sessionID fmt.Stringer) string {
	return filepath.Join(a.SessionDir(sessionID), AuditLogName)
}

// Screenshot returns where a screenshot named filename is stored. Only the
// base name of filename is used, so callers cannot write outside the session
// directory. An empty name yields DefaultScreenshot.
func (a Artifacts) Screenshot(sessionID fmt.Stringer, filename string) (string, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = DefaultScreenshot
	}
	return filepath.Join(a.SessionDir(sessionID), name), nil
}

// CleanFilename reduces filename to its base name. It rejects names that
// reduce to nothing usable and the reserved audit log name.
func CleanFilename(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", nil
	}
	name := filepath.Base(filepath.Clean(strings.ReplaceAll(filename, `\`, "/")))
	switch name {
	case ".", "..", "/":
		return "", fmt.Errorf("filename %q is not a valid file name", filename)
	case AuditLogName:
		return "", fmt.Errorf("filename %q is reserved", filename)
	}
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("filename %q must not be hidden", filename)
	}
	return name, nil
}
