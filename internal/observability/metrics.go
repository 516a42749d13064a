package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the lifecycle and admin collectors for one engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	state             prometheus.Gauge
	transitions       *prometheus.CounterVec
	phaseDuration     *prometheus.HistogramVec
	handshakeAttempts *prometheus.CounterVec
	handshakeOutcomes *prometheus.CounterVec
	heartbeatTicks    prometheus.Counter
	diagnostics       prometheus.Counter
	memoryBlocks      prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cortex",
			Subsystem: "lifecycle",
			Name:      "state",
			Help:      "Current lifecycle state code.",
		}),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cortex",
				Subsystem: "lifecycle",
				Name:      "transitions_total",
				Help:      "Lifecycle state transitions.",
			},
			[]string{"from", "to"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cortex",
				Subsystem: "boot",
				Name:      "phase_duration_seconds",
				Help:      "Boot phase duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		handshakeAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cortex",
				Subsystem: "handshake",
				Name:      "attempts_total",
				Help:      "Driver handshake attempts by result.",
			},
			[]string{"result"},
		),
		handshakeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cortex",
				Subsystem: "handshake",
				Name:      "outcomes_total",
				Help:      "Driver handshake terminal outcomes.",
			},
			[]string{"outcome"},
		),
		heartbeatTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cortex",
			Subsystem: "heartbeat",
			Name:      "ticks_total",
			Help:      "Heartbeat loop iterations.",
		}),
		diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cortex",
			Subsystem: "heartbeat",
			Name:      "diagnostics_total",
			Help:      "Heartbeat diagnostic summaries emitted.",
		}),
		memoryBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cortex",
			Subsystem: "memory",
			Name:      "blocks",
			Help:      "Allocated memory blocks.",
		}),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cortex",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total admin HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cortex",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Admin HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	collectors := []prometheus.Collector{
		m.state, m.transitions, m.phaseDuration,
		m.handshakeAttempts, m.handshakeOutcomes,
		m.heartbeatTicks, m.diagnostics, m.memoryBlocks,
		m.httpRequests, m.httpDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordTransition(from, to string, code int) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
	m.state.Set(float64(code))
}

func (m *Metrics) RecordPhase(phase string, duration time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

func (m *Metrics) RecordHandshakeAttempt(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.handshakeAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordHandshakeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.handshakeOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTick() {
	if m == nil {
		return
	}
	m.heartbeatTicks.Inc()
}

func (m *Metrics) RecordDiagnostic() {
	if m == nil {
		return
	}
	m.diagnostics.Inc()
}

func (m *Metrics) SetMemoryBlocks(n int) {
	if m == nil {
		return
	}
	m.memoryBlocks.Set(float64(n))
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
