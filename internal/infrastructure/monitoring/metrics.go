package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session states exported on the state gauge
var sessionStates = []string{"uninitialized", "initialized", "page_active", "closed"}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Command metrics
	CommandsTotal    *prometheus.CounterVec
	PolicyRejections *prometheus.CounterVec

	// Engine metrics
	EngineCalls    *prometheus.CounterVec
	EngineDuration *prometheus.HistogramVec

	// Session metrics
	SessionState    *prometheus.GaugeVec
	BrowserLaunches prometheus.Counter

	// Credential metrics
	AuthAttempts   *prometheus.CounterVec
	TwoFactorWaits *prometheus.CounterVec

	// Audit metrics
	AuditWrites *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests    int64   `json:"totalRequests"`
	TotalErrors      int64   `json:"totalErrors"`
	TotalCommands    int64   `json:"totalCommands"`
	TotalRejections  int64   `json:"totalRejections"`
	TotalDuration    float64 `json:"-"` // sum of all request durations
	RequestCount     int64   `json:"-"` // count for averaging
	AvgLatencyMillis float64 `json:"avgLatencyMs"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
}

// NewMetrics creates a new metrics collector on its own registry, so several
// collectors can coexist in one process (tests build one per server).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Command metrics
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_commands_total",
				Help: "Total number of gateway commands by outcome",
			},
			[]string{"command", "outcome"},
		),
		PolicyRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_policy_rejections_total",
				Help: "Total number of policy rejections by reason",
			},
			[]string{"reason"},
		),

		// Engine metrics
		EngineCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_engine_calls_total",
				Help: "Total number of browser engine calls",
			},
			[]string{"operation", "status"},
		),
		EngineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_engine_duration_seconds",
				Help:    "Browser engine call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"operation"},
		),

		// Session metrics
		SessionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gateway_session_state",
				Help: "Current session state (1 for the active state, 0 otherwise)",
			},
			[]string{"state"},
		),
		BrowserLaunches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_browser_launches_total",
				Help: "Total number of browser launches",
			},
		),

		// Credential metrics
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_auth_attempts_total",
				Help: "Total number of auth submissions by result",
			},
			[]string{"result"},
		),
		TwoFactorWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_2fa_waits_total",
				Help: "Total number of second factor waits by result",
			},
			[]string{"result"},
		),

		// Audit metrics
		AuditWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_audit_writes_total",
				Help: "Total number of audit log writes by status",
			},
			[]string{"status"},
		),
	}

	// Uptime is computed on scrape
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gateway_uptime_seconds",
			Help: "Gateway uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	m.SetSessionState("uninitialized")

	return m
}

// Registry returns the collector's registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommand records the outcome of a gateway command
func (m *Metrics) RecordCommand(command, outcome string) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.mu.Lock()
	m.snapshot.TotalCommands++
	m.mu.Unlock()
}

// RecordPolicyRejection records a policy rejection
func (m *Metrics) RecordPolicyRejection(reason string) {
	m.PolicyRejections.WithLabelValues(reason).Inc()
	m.mu.Lock()
	m.snapshot.TotalRejections++
	m.mu.Unlock()
}

// RecordEngineCall records a browser engine call
func (m *Metrics) RecordEngineCall(operation, status string, duration time.Duration) {
	m.EngineCalls.WithLabelValues(operation, status).Inc()
	m.EngineDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetSessionState marks state as the current session state
func (m *Metrics) SetSessionState(state string) {
	for _, s := range sessionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.SessionState.WithLabelValues(s).Set(v)
	}
}

// IncBrowserLaunches increments the browser launch counter
func (m *Metrics) IncBrowserLaunches() {
	m.BrowserLaunches.Inc()
}

// RecordAuthAttempt records an auth submission result
func (m *Metrics) RecordAuthAttempt(result string) {
	m.AuthAttempts.WithLabelValues(result).Inc()
}

// RecordTwoFactorWait records a second factor wait result
func (m *Metrics) RecordTwoFactorWait(result string) {
	m.TwoFactorWaits.WithLabelValues(result).Inc()
}

// RecordAuditWrite records an audit write
func (m *Metrics) RecordAuditWrite(status string) {
	m.AuditWrites.WithLabelValues(status).Inc()
}

// Snapshot returns a copy of the JSON snapshot
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.RequestCount > 0 {
		s.AvgLatencyMillis = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
