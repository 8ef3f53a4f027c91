package flows

import "context"

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureUnavailable
	ValidateFailureBlacklisted
	ValidateFailureDecode
)

// ValidateResult carries the verified identity or failure metadata.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	UserID  int64
	Email   string
	Role    string
}

// RunValidate checks a presented access token. The blacklist is consulted
// before the signature so a revoked token is rejected even when the
// verification key has rotated since it was minted.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	revoked, err := deps.BlacklistExists(ctx, tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureUnavailable, Err: err}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureBlacklisted}
	}

	claims, err := deps.Parse(tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureDecode, Err: err}
	}

	return ValidateResult{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}
}
