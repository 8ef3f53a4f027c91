// Package store defines the durable-state contracts of reelauth: the
// blacklist of revoked tokens and the log of outstanding refresh tokens.
//
// Both contracts are implemented by store/redisstore and store/pgstore.
// The engine only ever talks to these interfaces; all cross-request
// coordination (idempotent insert, single-winner delete) is delegated to
// the backend's own consistency guarantees, so no in-process locking is
// required anywhere above this layer.
//
// Backend failures are wrapped with [ErrUnavailable] so that callers can
// tell "the store said no" apart from "the store could not answer"; the
// latter must never be treated as an invalid credential.
package store
