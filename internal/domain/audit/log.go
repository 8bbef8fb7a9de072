package audit

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/id"
	"github.com/GriffinCanCode/browser-gateway/internal/shared/paths"
	"github.com/bytedance/sonic"
)

// FileName is the audit log name inside a session's artifacts directory.
const FileName = paths.AuditLogName

// Outcome classifies what happened to a command.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Record is one audit line.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID id.SessionID   `json:"sessionId"`
	Operation string         `json:"operation"`
	Outcome   Outcome        `json:"outcome"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Log appends records for one session to <artifactsDir>/<sessionID>/operations.log.
// Writes are serialized, so lines appear in the order Record was called.
type Log struct {
	mu        sync.Mutex
	sessionID id.SessionID
	dir       string
	file      *os.File // Protected by mu, opened on first write
	now       func() time.Time
	metrics   *monitoring.Metrics
}

// NewLog creates a log for the session. Nothing touches the disk until the
// first record.
func NewLog(artifactsDir string, sessionID id.SessionID) *Log {
	return &Log{
		sessionID: sessionID,
		dir:       paths.NewArtifacts(artifactsDir).SessionDir(sessionID),
		now:       time.Now,
	}
}

// WithMetrics adds write counting to the log
func (l *Log) WithMetrics(metrics *monitoring.Metrics) *Log {
	l.metrics = metrics
	return l
}

// Dir returns the session artifacts directory.
func (l *Log) Dir() string {
	return l.dir
}

// Path returns the audit file path.
func (l *Log) Path() string {
	return filepath.Join(l.dir, FileName)
}

// Record appends one line and returns once it has been handed to the OS.
func (l *Log) Record(operation string, outcome Outcome, detail map[string]any) error {
	err := l.write(Record{
		Timestamp: l.now().UTC(),
		SessionID: l.sessionID,
		Operation: operation,
		Outcome:   outcome,
		Detail:    detail,
	})
	if l.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		l.metrics.RecordAuditWrite(status)
	}
	return err
}

func (l *Log) write(rec Record) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifacts directory: %w", err)
		}
		f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		l.file = f
	}

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Close releases the file handle. A later Record reopens it.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadFile parses an audit file back into records.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := sonic.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode audit line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
