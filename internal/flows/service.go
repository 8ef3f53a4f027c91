package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Parse != nil
}

func (s Service) Issue(ctx context.Context, userID int64, email, role string) IssueResult {
	return RunIssue(ctx, userID, email, role, s.deps.Issue)
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}

func (s Service) Rotate(ctx context.Context, refreshToken string) RotateResult {
	return RunRotate(ctx, refreshToken, s.deps.Rotate)
}

func (s Service) Logout(ctx context.Context, accessToken string) RevokeResult {
	return RunLogout(ctx, accessToken, s.deps.Revoke)
}

func (s Service) RevokeAll(ctx context.Context, accessToken string) RevokeResult {
	return RunRevokeAll(ctx, accessToken, s.deps.Revoke)
}

func (s Service) RevokeAllForUser(ctx context.Context, userID int64) RevokeResult {
	return RunRevokeAllForUser(ctx, userID, s.deps.Revoke)
}
