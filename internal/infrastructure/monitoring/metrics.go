package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nnoitra"

// Metrics holds all Prometheus metrics. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bus metrics
	BusPublishes    *prometheus.CounterVec
	BusCalls        *prometheus.CounterVec
	BusCallDuration *prometheus.HistogramVec
	BusPanics       *prometheus.CounterVec

	// Command metrics
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Autocomplete metrics
	Autocompletes       *prometheus.CounterVec
	AutocompleteOptions prometheus.Histogram

	// Storage metrics
	StorageOps      *prometheus.CounterVec
	StorageDuration *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSFrames      *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API.
type Snapshot struct {
	TotalRequests     int64   `json:"totalRequests"`
	TotalErrors       int64   `json:"totalErrors"`
	TotalCommands     int64   `json:"totalCommands"`
	ActiveSessions    int64   `json:"activeSessions"`
	ActiveConnections int64   `json:"activeConnections"`
	UptimeSeconds     float64 `json:"uptimeSeconds"`
}

// NewMetrics creates a metrics collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	latency := []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   latency,
		}, []string{"method", "path"}),

		BusPublishes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publishes_total",
			Help:      "Messages dispatched per topic",
		}, []string{"topic"}),
		BusCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_calls_total",
			Help:      "Bus requests by outcome",
		}, []string{"topic", "outcome"}),
		BusCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_call_duration_seconds",
			Help:      "Bus request round trip in seconds",
			Buckets:   latency,
		}, []string{"topic"}),
		BusPanics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_listener_panics_total",
			Help:      "Recovered listener panics per topic",
		}, []string{"topic"}),

		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Command executions by outcome",
		}, []string{"command", "outcome"}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution time in seconds",
			Buckets:   latency,
		}, []string{"command"}),

		Autocompletes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_requests_total",
			Help:      "Autocomplete requests by result",
		}, []string{"result"}),
		AutocompleteOptions: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "autocomplete_options",
			Help:      "Options offered per autocomplete request",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),

		StorageOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Storage operations per backend, API and status",
		}, []string{"backend", "api", "status"}),
		StorageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Storage operation time in seconds",
			Buckets:   latency,
		}, []string{"backend", "api"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),

		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live terminal sessions",
		}),
		SessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of terminal sessions created",
		}),

		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Number of active WebSocket connections",
		}),
		WSFrames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_frames_total",
			Help:      "WebSocket frames by direction and type",
		}, []string{"direction", "type"}),
	}

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Server uptime in seconds",
	}, func() float64 { return time.Since(m.startTime).Seconds() })

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordWSFrame records a WebSocket frame
func (m *Metrics) RecordWSFrame(direction, frameType string) {
	m.WSFrames.WithLabelValues(direction, frameType).Inc()
}

// SessionOpened counts a new terminal session.
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// SessionClosed counts a finished terminal session.
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
