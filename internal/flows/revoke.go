package flows

import (
	"context"
	"errors"
)

// RevokeFailureKind classifies logout and cascade failures for root-level
// mapping.
type RevokeFailureKind int

const (
	RevokeFailureNone RevokeFailureKind = iota
	RevokeFailureUnavailable
	RevokeFailureDecode
)

// RevokeResult carries the affected identity and, for cascades, how many
// refresh tokens were revoked.
type RevokeResult struct {
	Failure RevokeFailureKind
	Err     error
	UserID  int64
	Email   string
	Revoked int
}

// RunLogout blacklists a single access token. The operation is lenient on
// purpose: a token that already expired needs no blacklist entry, so the
// call succeeds as a no-op, and repeating a logout re-inserts the same
// entry, which the stores treat as idempotent.
func RunLogout(ctx context.Context, accessToken string, deps RevokeDeps) RevokeResult {
	claims, err := deps.Parse(accessToken)
	if err != nil {
		if deps.ExpiredErr != nil && errors.Is(err, deps.ExpiredErr) {
			return RevokeResult{UserID: claims.UserID, Email: claims.Email}
		}
		return RevokeResult{Failure: RevokeFailureDecode, Err: err}
	}

	if err := deps.BlacklistInsert(ctx, accessToken, claims.ExpiresAt); err != nil {
		return RevokeResult{Failure: RevokeFailureUnavailable, Err: err, UserID: claims.UserID}
	}

	return RevokeResult{UserID: claims.UserID, Email: claims.Email}
}

// RunRevokeAll revokes the presented access token plus every outstanding
// refresh token of its owner. An expired access token skips its own
// blacklist entry but still cascades, since the owner's refresh tokens
// may outlive it.
func RunRevokeAll(ctx context.Context, accessToken string, deps RevokeDeps) RevokeResult {
	claims, err := deps.Parse(accessToken)
	if err != nil && !(deps.ExpiredErr != nil && errors.Is(err, deps.ExpiredErr)) {
		return RevokeResult{Failure: RevokeFailureDecode, Err: err}
	}
	expired := err != nil

	if !expired {
		if err := deps.BlacklistInsert(ctx, accessToken, claims.ExpiresAt); err != nil {
			return RevokeResult{Failure: RevokeFailureUnavailable, Err: err, UserID: claims.UserID}
		}
	}

	result := RunRevokeAllForUser(ctx, claims.UserID, deps)
	result.Email = claims.Email
	return result
}

// RunRevokeAllForUser revokes every outstanding refresh token owned by
// the user. Each token is blacklisted until its natural expiry and then
// removed from the refresh log; the cascade aborts on the first store
// error so a partial revocation is reported rather than hidden.
func RunRevokeAllForUser(ctx context.Context, userID int64, deps RevokeDeps) RevokeResult {
	entries, err := deps.FindRefreshByUser(ctx, userID)
	if err != nil {
		return RevokeResult{Failure: RevokeFailureUnavailable, Err: err, UserID: userID}
	}

	revoked := 0
	for _, entry := range entries {
		if err := deps.BlacklistInsert(ctx, entry.Token, entry.ExpiresAt); err != nil {
			return RevokeResult{Failure: RevokeFailureUnavailable, Err: err, UserID: userID, Revoked: revoked}
		}
		if _, err := deps.DeleteRefresh(ctx, entry.Token); err != nil {
			return RevokeResult{Failure: RevokeFailureUnavailable, Err: err, UserID: userID, Revoked: revoked}
		}
		revoked++
	}

	return RevokeResult{UserID: userID, Revoked: revoked}
}
