package flows

import (
	"context"
	"time"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureSign
	IssueFailureStore
)

// IssueResult carries either the minted token pair or failure metadata.
type IssueResult struct {
	Failure          IssueFailureKind
	Err              error
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RunIssue mints an access/refresh pair for the given identity and
// persists the refresh side so a later rotation can claim it.
func RunIssue(ctx context.Context, userID int64, email, role string, deps IssueDeps) IssueResult {
	access, accessExp, err := deps.SignAccess(userID, email, role)
	if err != nil {
		return IssueResult{Failure: IssueFailureSign, Err: err}
	}

	refresh, refreshExp, err := deps.SignRefresh(userID, email, role)
	if err != nil {
		return IssueResult{Failure: IssueFailureSign, Err: err}
	}

	if err := deps.SaveRefresh(ctx, refresh, userID, deps.Now(), refreshExp); err != nil {
		return IssueResult{Failure: IssueFailureStore, Err: err}
	}

	return IssueResult{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}
}
