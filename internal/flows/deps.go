package flows

import (
	"context"
	"time"
)

// TokenClaims is the decoded identity carried by a token, detached from
// any codec type so flows stay free of root package dependencies.
type TokenClaims struct {
	UserID    int64
	Email     string
	Role      string
	ExpiresAt time.Time
}

// UserRecord is the user row a rotation re-reads before re-issuing.
type UserRecord struct {
	ID    int64
	Email string
	Role  string
}

// RefreshEntry is one outstanding refresh token owned by a user.
type RefreshEntry struct {
	Token     string
	ExpiresAt time.Time
}

// IssueDeps captures token issuance dependencies.
type IssueDeps struct {
	SignAccess  func(id int64, email, role string) (string, time.Time, error)
	SignRefresh func(id int64, email, role string) (string, time.Time, error)
	SaveRefresh func(ctx context.Context, token string, userID int64, createdAt, expiresAt time.Time) error
	Now         func() time.Time
}

// ValidateDeps captures access validation dependencies. ExpiredErr is the
// codec's past-expiry sentinel; Parse still returns usable claims
// alongside it.
type ValidateDeps struct {
	BlacklistExists func(ctx context.Context, token string) (bool, error)
	Parse           func(token string) (TokenClaims, error)
	ExpiredErr      error
}

// RotateDeps captures refresh rotation dependencies. FindUser returns
// (nil, nil) when the user no longer exists.
type RotateDeps struct {
	BlacklistExists func(ctx context.Context, token string) (bool, error)
	Parse           func(token string) (TokenClaims, error)
	ClaimRefresh    func(ctx context.Context, token string) (bool, error)
	BlacklistInsert func(ctx context.Context, token string, expiresAt time.Time) error
	FindUser        func(ctx context.Context, userID int64) (*UserRecord, error)
	Issue           IssueDeps
}

// RevokeDeps captures logout and cascade revocation dependencies.
type RevokeDeps struct {
	Parse             func(token string) (TokenClaims, error)
	ExpiredErr        error
	BlacklistInsert   func(ctx context.Context, token string, expiresAt time.Time) error
	DeleteRefresh     func(ctx context.Context, token string) (bool, error)
	FindRefreshByUser func(ctx context.Context, userID int64) ([]RefreshEntry, error)
	Now               func() time.Time
}

// Deps groups flow dependency sets. The root engine builds this once and
// delegates its session methods to the matching flow.
type Deps struct {
	Issue    IssueDeps
	Validate ValidateDeps
	Rotate   RotateDeps
	Revoke   RevokeDeps
}
