package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for junoctl.
type Metrics struct {
	config MetricsConfig

	// Sweep metrics
	sweepsStarted   prometheus.Counter
	sweepsCompleted *prometheus.CounterVec
	sweepDuration   *prometheus.HistogramVec

	// Resource metrics
	resourcesExtracted *prometheus.GaugeVec
	operations         *prometheus.CounterVec
	leftovers          *prometheus.GaugeVec
	leftoverBytes      *prometheus.GaugeVec

	// Daemon metrics
	daemonCalls    *prometheus.CounterVec
	daemonDuration *prometheus.HistogramVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// No-op instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		sweepsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_started_total",
				Help:      "Total number of cleanup sweeps started",
			},
		),
		sweepsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeps_completed_total",
				Help:      "Total number of cleanup sweeps completed",
			},
			[]string{"status"},
		),
		sweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweep_duration_seconds",
				Help:      "Duration of cleanup sweeps in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		resourcesExtracted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "resources_extracted",
				Help:      "Resources discovered in the last sweep",
			},
			[]string{"kind", "provenance"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resource_operations_total",
				Help:      "Stop and removal attempts by operation, kind and outcome",
			},
			[]string{"operation", "kind", "outcome"},
		),
		leftovers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "leftover_resources",
				Help:      "Live resources still matching after the last sweep",
			},
			[]string{"kind"},
		),
		leftoverBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "leftover_bytes",
				Help:      "Aggregated size of leftover resources in bytes",
			},
			[]string{"kind"},
		),

		daemonCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "daemon_calls_total",
				Help:      "Total number of container daemon invocations",
			},
			[]string{"operation", "status"},
		),
		daemonDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "daemon_call_duration_seconds",
				Help:      "Duration of container daemon invocations in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.sweepsStarted,
		m.sweepsCompleted,
		m.sweepDuration,
		m.resourcesExtracted,
		m.operations,
		m.leftovers,
		m.leftoverBytes,
		m.daemonCalls,
		m.daemonDuration,
		m.errorsByClass,
	)

	return m, nil
}

// Sweep Metrics

// RecordSweepStarted increments the counter for started sweeps.
func (m *Metrics) RecordSweepStarted() {
	if m == nil || m.sweepsStarted == nil {
		return
	}
	m.sweepsStarted.Inc()
}

// RecordSweepCompleted records a completed sweep with its status and duration.
func (m *Metrics) RecordSweepCompleted(status string, duration time.Duration) {
	if m == nil || m.sweepsCompleted == nil {
		return
	}
	m.sweepsCompleted.WithLabelValues(status).Inc()
	m.sweepDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Resource Metrics

// SetExtracted sets the number of resources discovered for kind.
func (m *Metrics) SetExtracted(kind, provenance string, count int) {
	if m == nil || m.resourcesExtracted == nil {
		return
	}
	m.resourcesExtracted.WithLabelValues(kind, provenance).Set(float64(count))
}

// RecordResourceOperation records one stop or removal attempt.
func (m *Metrics) RecordResourceOperation(operation, kind, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(operation, kind, outcome).Inc()
}

// SetLeftovers records the verification result for kind.
func (m *Metrics) SetLeftovers(kind string, count int, bytes uint64) {
	if m == nil || m.leftovers == nil {
		return
	}
	m.leftovers.WithLabelValues(kind).Set(float64(count))
	m.leftoverBytes.WithLabelValues(kind).Set(float64(bytes))
}

// Daemon Metrics

// RecordDaemonCall records a daemon invocation with its duration.
func (m *Metrics) RecordDaemonCall(operation string, ok bool, duration time.Duration) {
	if m == nil || m.daemonCalls == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.daemonCalls.WithLabelValues(operation, status).Inc()
	m.daemonDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Error Metrics

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m == nil || m.errorsByClass == nil || errorClass == "" {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// WriteTextfile writes the registry to path in text exposition format.
// It is a no-op when metrics are disabled or path is empty.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || m.registry == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
