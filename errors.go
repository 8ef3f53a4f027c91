package reelauth

import "errors"

var (
	// ErrTokenInvalid covers every credential failure a caller is allowed
	// to see: bad signature, expiry, malformed payload, blacklisted or
	// already-consumed token. The audit stream keeps the detail.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrUserNotFound reports that the token's owner no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreUnavailable reports a backend failure; the credential was
	// not judged either way.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrInvalidCredentials reports a failed email/password login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSigningKey reports an unusable signing secret at
	// construction time.
	ErrInvalidSigningKey = errors.New("invalid signing key")
	// ErrMissingCredential reports a request with no Authorization header.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedCredential reports an Authorization header that is not
	// a Bearer token.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrEngineNotReady reports use of an engine that was not built.
	ErrEngineNotReady = errors.New("engine not ready")
)
