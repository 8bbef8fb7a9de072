package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/GriffinCanCode/browser-gateway/internal/shared/utils"
	"github.com/joho/godotenv"
)

var (
	// ErrInvalidEnvName is returned for names that are not valid variable names.
	ErrInvalidEnvName = errors.New("invalid environment variable name")
	// ErrInvalidSecret is returned for secrets that cannot be stored as one line.
	ErrInvalidSecret = errors.New("invalid secret")
)

const autoSavedComment = "# Auto-saved password"

// EnvFileStore persists secrets as NAME=value lines in an env file and
// mirrors them into the process environment.
type EnvFileStore struct {
	mu     sync.Mutex
	path   string
	setenv func(key, value string) error
}

// NewEnvFileStore creates a store backed by path.
func NewEnvFileStore(path string) *EnvFileStore {
	return &EnvFileStore{
		path:   path,
		setenv: os.Setenv,
	}
}

// Path returns the env file path.
func (s *EnvFileStore) Path() string {
	return s.path
}

// Load reads the env file into the process environment. Variables already
// set in the environment keep their values. A missing file is not an error.
func (s *EnvFileStore) Load() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := godotenv.Load(s.path); err != nil {
		return false, fmt.Errorf("failed to load env file %s: %w", s.path, err)
	}
	return true, nil
}

// Save writes or updates NAME="value", quoted and escaped the way godotenv
// parses it back. The first existing NAME= line is
// replaced in place; otherwise the entry is appended under a marker comment.
// Every other line is preserved byte for byte.
func (s *EnvFileStore) Save(name, value string) error {
	if err := utils.ValidateEnvName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvName, err)
	}
	if err := utils.ValidateSecret(value, "password", true); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	entry, err := godotenv.Marshal(map[string]string{name: value})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	content := upsertLine(string(data), name, entry)

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create env file directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}

	if err := s.setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s in environment: %w", name, err)
	}
	return nil
}

// upsertLine puts entry in place of the first NAME= line, or appends it.
// entry is already encoded so godotenv reads the value back unchanged.
func upsertLine(content, name, entry string) string {
	prefix := name + "="

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSuffix(line, "\r"), prefix) {
			lines[i] = entry
			return strings.Join(lines, "\n")
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + autoSavedComment + "\n" + entry + "\n"
}
