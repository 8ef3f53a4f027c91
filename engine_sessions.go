package reelauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reelauth/reelauth/internal/audit"
	"github.com/reelauth/reelauth/internal/flows"
)

// Issue mints an access/refresh pair for the user and records the refresh
// side so a later Rotate can claim it.
func (e *Engine) Issue(ctx context.Context, user User) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Issue(ctx, user.ID, user.Email, user.Role)
	switch res.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailureStore:
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		e.emitAudit(ctx, audit.TypeIssue, user.ID, user.Email, err)
		return TokenPair{}, err
	default:
		e.emitAudit(ctx, audit.TypeIssue, user.ID, user.Email, res.Err)
		return TokenPair{}, res.Err
	}

	e.metrics.incIssued()
	e.emitAudit(ctx, audit.TypeIssue, user.ID, user.Email, nil)

	return pairFromIssue(res), nil
}

// Validate checks a presented access token and returns its verified
// identity. Every credential failure comes back as ErrTokenInvalid; a
// store failure is ErrStoreUnavailable and judges nothing.
func (e *Engine) Validate(ctx context.Context, token string) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Validate(ctx, token)
	principal, err := mapValidate(res)
	if err != nil {
		e.metrics.incValidateFailure()
		e.emitAudit(ctx, audit.TypeValidate, res.UserID, res.Email, auditCause(err, res.Err))
		return nil, err
	}

	e.metrics.incValidated()
	return principal, nil
}

// Rotate exchanges a refresh token for a new pair. The stored record is
// claimed atomically, so a replayed token fails with ErrTokenInvalid no
// matter how the concurrent attempts interleave, and the consumed token
// is blacklisted until its natural expiry.
func (e *Engine) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Rotate(ctx, refreshToken)
	switch res.Failure {
	case flows.RotateFailureNone:
	case flows.RotateFailureUnavailable, flows.RotateFailureStore:
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		e.emitAudit(ctx, audit.TypeRotate, res.UserID, res.Email, err)
		return TokenPair{}, err
	case flows.RotateFailureReplay:
		e.metrics.incRotationReplay()
		e.emitAudit(ctx, audit.TypeRotate, res.UserID, res.Email, errors.New("refresh token already used"))
		return TokenPair{}, ErrTokenInvalid
	case flows.RotateFailureUserNotFound:
		e.emitAudit(ctx, audit.TypeRotate, res.UserID, res.Email, ErrUserNotFound)
		return TokenPair{}, ErrUserNotFound
	case flows.RotateFailureSign:
		e.emitAudit(ctx, audit.TypeRotate, res.UserID, res.Email, res.Err)
		return TokenPair{}, res.Err
	default: // blacklisted or undecodable
		e.emitAudit(ctx, audit.TypeRotate, res.UserID, res.Email, auditCause(ErrTokenInvalid, res.Err))
		return TokenPair{}, ErrTokenInvalid
	}

	e.metrics.incRotation()
	e.emitAudit(ctx, audit.TypeRotate, res.UserID, res.Email, nil)

	return pairFromIssue(res.Issued), nil
}

// Logout revokes the session behind the access token: the token itself is
// blacklisted and every outstanding refresh token of its owner is revoked.
// The operation is idempotent, and a token that already expired succeeds
// as a no-op for its own blacklist entry.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flows.RevokeAll(ctx, accessToken)
	if err := mapRevoke(res); err != nil {
		e.emitAudit(ctx, audit.TypeLogout, res.UserID, res.Email, auditCause(err, res.Err))
		return err
	}

	e.metrics.incLogout()
	e.emitAudit(ctx, audit.TypeLogout, res.UserID, res.Email, nil)

	return nil
}

// RevokeAll blacklists the presented access token and revokes every
// outstanding refresh token of the given user. The first store failure
// aborts the cascade with ErrStoreUnavailable.
func (e *Engine) RevokeAll(ctx context.Context, userID int64, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if res := e.flows.Logout(ctx, accessToken); res.Failure != flows.RevokeFailureNone {
		err := mapRevoke(res)
		e.emitAudit(ctx, audit.TypeRevokeAll, userID, res.Email, auditCause(err, res.Err))
		return err
	}

	res := e.flows.RevokeAllForUser(ctx, userID)
	if err := mapRevoke(res); err != nil {
		e.emitAudit(ctx, audit.TypeRevokeAll, userID, res.Email, auditCause(err, res.Err))
		return err
	}

	e.metrics.incRevokeAll()
	e.emitAudit(ctx, audit.TypeRevokeAll, userID, res.Email, nil)

	return nil
}

// SweepExpired removes blacklist entries and refresh records whose expiry
// precedes cutoff, returning how many were purged. The janitor calls this
// on its interval; it is also safe to call manually.
func (e *Engine) SweepExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	blPurged, err := e.blacklist.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, audit.TypeSweep, 0, "", err)
		return 0, err
	}

	rtPurged, err := e.refresh.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.emitAudit(ctx, audit.TypeSweep, 0, "", err)
		return blPurged, err
	}

	total := blPurged + rtPurged
	e.metrics.addSweepPurged(total)
	e.emitAudit(ctx, audit.TypeSweep, 0, "", nil)

	return total, nil
}

func mapValidate(res flows.ValidateResult) (*Principal, error) {
	switch res.Failure {
	case flows.ValidateFailureNone:
		return &Principal{UserID: res.UserID, Email: res.Email, Role: res.Role}, nil
	case flows.ValidateFailureUnavailable:
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	default:
		return nil, ErrTokenInvalid
	}
}

func mapRevoke(res flows.RevokeResult) error {
	switch res.Failure {
	case flows.RevokeFailureNone:
		return nil
	case flows.RevokeFailureUnavailable:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	default:
		return ErrTokenInvalid
	}
}

// auditCause prefers the detailed flow error for the audit trail over the
// collapsed sentinel handed to callers.
func auditCause(mapped, detail error) error {
	if detail != nil {
		return detail
	}
	return mapped
}

func pairFromIssue(res flows.IssueResult) TokenPair {
	return TokenPair{
		AccessToken:      res.AccessToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshToken:     res.RefreshToken,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}
}
