package reelauth

import (
	"time"

	"github.com/reelauth/reelauth/internal/audit"
	"github.com/reelauth/reelauth/internal/flows"
	"github.com/reelauth/reelauth/jwt"
	"github.com/reelauth/reelauth/password"
	"github.com/reelauth/reelauth/store"
)

// Engine is the session authority. Construct it through the Builder; the
// zero value is not usable. All methods are safe for concurrent use.
type Engine struct {
	config    Config
	users     UserDirectory
	blacklist store.Blacklist
	refresh   store.RefreshLog
	hasher    *password.Hasher
	tokens    *jwt.Manager
	flows     flows.Service
	audit     *audit.Dispatcher
	metrics   *Metrics
	janitor   *janitor
	now       func() time.Time
}

// Metrics returns a snapshot of the operation counters.
func (e *Engine) Metrics() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// Close stops background work: the cleanup janitor and the audit
// dispatcher (after draining queued events). The engine must not be used
// afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.janitor.stop()
	e.audit.Close()
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}
