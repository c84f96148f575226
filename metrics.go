package goGate

import "sync/atomic"

// MetricID defines a public type used by goGate APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricRequestAllowed is an exported constant or variable used by the gating engine.
	MetricRequestAllowed MetricID = iota
	// MetricRateLimitHit is an exported constant or variable used by the gating engine.
	MetricRateLimitHit
	// MetricRateLimitCleared is an exported constant or variable used by the gating engine.
	MetricRateLimitCleared
	// MetricAuthDenied is an exported constant or variable used by the gating engine.
	MetricAuthDenied
	// MetricBearerAccepted is an exported constant or variable used by the gating engine.
	MetricBearerAccepted
	// MetricBearerRejected is an exported constant or variable used by the gating engine.
	MetricBearerRejected
	// MetricGuestRedirected is an exported constant or variable used by the gating engine.
	MetricGuestRedirected
	// MetricRoleDenied is an exported constant or variable used by the gating engine.
	MetricRoleDenied
	// MetricSessionDestroyed is an exported constant or variable used by the gating engine.
	MetricSessionDestroyed
	// MetricCsrfRejected is an exported constant or variable used by the gating engine.
	MetricCsrfRejected
	// MetricFailureTranslated is an exported constant or variable used by the gating engine.
	MetricFailureTranslated
	// MetricPanicRecovered is an exported constant or variable used by the gating engine.
	MetricPanicRecovered
	// MetricAuditDropped is an exported constant or variable used by the gating engine.
	MetricAuditDropped
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goGate APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by goGate APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled describes the enabled operation and its observable behavior.
//
// Enabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
