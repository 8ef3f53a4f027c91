package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps any backend I/O failure. Callers check it with
// errors.Is and map it to a 5xx outcome, never to token invalidity.
var ErrUnavailable = errors.New("token store unavailable")

// BlacklistEntry records one revoked token. ExpiresAt is copied from the
// token's own expiry so the entry can be pruned once the token would have
// died of natural causes anyway.
type BlacklistEntry struct {
	Token         string
	BlacklistedAt time.Time
	ExpiresAt     time.Time
}

// RefreshRecord is one outstanding refresh token owned by a user.
type RefreshRecord struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Blacklist is the durable set of revoked token strings.
type Blacklist interface {
	// Insert records a revocation. Inserting a token that is already
	// present is a no-op, not an error: concurrent double logout must not
	// fail.
	Insert(ctx context.Context, entry BlacklistEntry) error
	// Exists reports whether the token has been revoked.
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteExpiredBefore removes entries whose expiry precedes cutoff and
	// returns how many were purged.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RefreshLog is the durable set of outstanding refresh tokens.
type RefreshLog interface {
	// Insert persists a new record. Idempotent on the token key.
	Insert(ctx context.Context, rec RefreshRecord) error
	// Exists reports whether the token is still outstanding.
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteByToken removes the record and reports whether it existed.
	// This is the atomic claim used by rotation: under concurrent calls
	// for the same token, exactly one caller observes true.
	DeleteByToken(ctx context.Context, token string) (bool, error)
	// FindAllByUser returns every outstanding record owned by the user.
	FindAllByUser(ctx context.Context, userID int64) ([]RefreshRecord, error)
	// DeleteExpiredBefore removes records whose expiry precedes cutoff and
	// returns how many were purged.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
