package reelauth

import "sync/atomic"

// Metrics counts engine operations. Counters are plain atomics; a
// disabled Metrics keeps every method as a cheap no-op. A nil *Metrics
// is also valid.
type Metrics struct {
	enabled bool

	issued           atomic.Uint64
	validated        atomic.Uint64
	validateFailures atomic.Uint64
	rotations        atomic.Uint64
	rotationReplays  atomic.Uint64
	logouts          atomic.Uint64
	revokeAlls       atomic.Uint64
	sweepPurged      atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Issued           uint64
	Validated        uint64
	ValidateFailures uint64
	Rotations        uint64
	RotationReplays  uint64
	Logouts          uint64
	RevokeAlls       uint64
	SweepPurged      uint64
}

// NewMetrics returns a counter set honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) active() bool {
	return m != nil && m.enabled
}

func (m *Metrics) incIssued() {
	if m.active() {
		m.issued.Add(1)
	}
}

func (m *Metrics) incValidated() {
	if m.active() {
		m.validated.Add(1)
	}
}

func (m *Metrics) incValidateFailure() {
	if m.active() {
		m.validateFailures.Add(1)
	}
}

func (m *Metrics) incRotation() {
	if m.active() {
		m.rotations.Add(1)
	}
}

func (m *Metrics) incRotationReplay() {
	if m.active() {
		m.rotationReplays.Add(1)
	}
}

func (m *Metrics) incLogout() {
	if m.active() {
		m.logouts.Add(1)
	}
}

func (m *Metrics) incRevokeAll() {
	if m.active() {
		m.revokeAlls.Add(1)
	}
}

func (m *Metrics) addSweepPurged(n int64) {
	if m.active() && n > 0 {
		m.sweepPurged.Add(uint64(n))
	}
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Issued:           m.issued.Load(),
		Validated:        m.validated.Load(),
		ValidateFailures: m.validateFailures.Load(),
		Rotations:        m.rotations.Load(),
		RotationReplays:  m.rotationReplays.Load(),
		Logouts:          m.logouts.Load(),
		RevokeAlls:       m.revokeAlls.Load(),
		SweepPurged:      m.sweepPurged.Load(),
	}
}
