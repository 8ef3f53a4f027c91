package flows

import "context"

// RotateFailureKind classifies rotation failures for root-level mapping.
type RotateFailureKind int

const (
	RotateFailureNone RotateFailureKind = iota
	RotateFailureUnavailable
	RotateFailureBlacklisted
	RotateFailureDecode
	RotateFailureReplay
	RotateFailureUserNotFound
	RotateFailureSign
	RotateFailureStore
)

// RotateResult carries the replacement pair or failure metadata.
type RotateResult struct {
	Failure RotateFailureKind
	Err     error
	UserID  int64
	Email   string
	Role    string
	Issued  IssueResult
}

// RunRotate exchanges a refresh token for a fresh pair. Claiming the
// stored record is the single-use gate: of two concurrent rotations with
// the same token exactly one claims the row, and the loser fails as a
// replay. The consumed token is then blacklisted until its natural expiry
// and the identity is re-read so a deleted user cannot keep refreshing.
func RunRotate(ctx context.Context, refreshToken string, deps RotateDeps) RotateResult {
	revoked, err := deps.BlacklistExists(ctx, refreshToken)
	if err != nil {
		return RotateResult{Failure: RotateFailureUnavailable, Err: err}
	}
	if revoked {
		return RotateResult{Failure: RotateFailureBlacklisted}
	}

	claims, err := deps.Parse(refreshToken)
	if err != nil {
		return RotateResult{Failure: RotateFailureDecode, Err: err}
	}

	claimed, err := deps.ClaimRefresh(ctx, refreshToken)
	if err != nil {
		return RotateResult{Failure: RotateFailureUnavailable, Err: err, UserID: claims.UserID}
	}
	if !claimed {
		return RotateResult{Failure: RotateFailureReplay, UserID: claims.UserID}
	}

	if err := deps.BlacklistInsert(ctx, refreshToken, claims.ExpiresAt); err != nil {
		return RotateResult{Failure: RotateFailureUnavailable, Err: err, UserID: claims.UserID}
	}

	user, err := deps.FindUser(ctx, claims.UserID)
	if err != nil {
		return RotateResult{Failure: RotateFailureUnavailable, Err: err, UserID: claims.UserID}
	}
	if user == nil {
		return RotateResult{Failure: RotateFailureUserNotFound, UserID: claims.UserID}
	}

	issued := RunIssue(ctx, user.ID, user.Email, user.Role, deps.Issue)
	switch issued.Failure {
	case IssueFailureNone:
	case IssueFailureSign:
		return RotateResult{Failure: RotateFailureSign, Err: issued.Err, UserID: user.ID}
	default:
		return RotateResult{Failure: RotateFailureStore, Err: issued.Err, UserID: user.ID}
	}

	return RotateResult{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Issued: issued,
	}
}
