// Package audit carries session lifecycle events from the engine to a
// caller-provided sink without blocking the hot path. Events flow through
// a buffered channel serviced by a single goroutine; when the buffer is
// full the dispatcher either drops (counting drops) or applies
// backpressure, depending on configuration.
package audit
