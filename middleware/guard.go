package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/reelauth/reelauth"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal Guard attached to the
// request context.
func PrincipalFromContext(ctx context.Context) (*reelauth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*reelauth.Principal)
	return p, ok
}

// GuardConfig configures the request authenticator.
type GuardConfig struct {
	// PublicRoutes bypass authentication entirely. An entry matches its
	// exact path; an entry ending in "/**" matches the path prefix before
	// the wildcard.
	PublicRoutes []string
}

// Guard authenticates every non-public request with the engine. A
// missing Authorization header, a non-Bearer header, and an invalid token
// each produce a distinct machine-readable 401 code; a store outage is a
// 503, since the credential was never judged.
func Guard(engine *reelauth.Engine, cfg GuardConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path, cfg.PublicRoutes) {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, err)
				return
			}

			principal, err := engine.Validate(r.Context(), token)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose principal does not
// carry the role. Use it inside a Guard-wrapped chain.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
				return
			}
			if principal.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPublicRoute(path string, routes []string) bool {
	for _, route := range routes {
		if prefix, ok := strings.CutSuffix(route, "/**"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == route {
			return true
		}
	}
	return false
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", reelauth.ErrMissingCredential
	}

	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) || header == scheme {
		return "", reelauth.ErrMalformedCredential
	}

	return header[len(scheme):], nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reelauth.ErrMissingCredential):
		writeError(w, http.StatusUnauthorized, "missing_credential", "authorization header required")
	case errors.Is(err, reelauth.ErrMalformedCredential):
		writeError(w, http.StatusUnauthorized, "malformed_credential", "bearer token required")
	case errors.Is(err, reelauth.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", "token store unavailable")
	default:
		writeError(w, http.StatusUnauthorized, "invalid_token", "token rejected")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
