package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/reelauth/reelauth"
	"github.com/reelauth/reelauth/middleware"
)

type memoryDirectory struct {
	users map[int64]*reelauth.User
}

func (d *memoryDirectory) FindByID(_ context.Context, id int64) (*reelauth.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (d *memoryDirectory) FindByEmail(_ context.Context, email string) (*reelauth.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *memoryDirectory) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	if u, ok := d.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (d *memoryDirectory) DeleteByID(_ context.Context, id int64) error {
	delete(d.users, id)
	return nil
}

func newTestEngine(t *testing.T) *reelauth.Engine {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := reelauth.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Cleanup.Enabled = false
	cfg.Audit.Enabled = false
	cfg.Metrics.Enabled = false

	engine, err := reelauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(&memoryDirectory{users: map[int64]*reelauth.User{
			1: {ID: 1, Email: "a@b.com", Role: reelauth.RoleUser},
			2: {ID: 2, Email: "admin@b.com", Role: reelauth.RoleAdmin},
		}}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body not JSON: %v", err)
	}
	return body["error"]
}

func TestGuardDistinguishesMissingAndMalformedHeaders(t *testing.T) {
	engine := newTestEngine(t)
	handler := middleware.Guard(engine, middleware.GuardConfig{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies", nil))
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "missing_credential" {
		t.Fatalf("no header: status %d code %q", rec.Code, errorCode(t, rec))
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "malformed_credential" {
		t.Fatalf("wrong scheme: status %d code %q", rec.Code, errorCode(t, rec))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "invalid_token" {
		t.Fatalf("garbage token: status %d code %q", rec.Code, errorCode(t, rec))
	}
}

func TestGuardAcceptsValidTokenAndInjectsPrincipal(t *testing.T) {
	engine := newTestEngine(t)

	pair, err := engine.Issue(context.Background(), reelauth.User{ID: 1, Email: "a@b.com", Role: reelauth.RoleUser})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var seen *reelauth.Principal
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Guard(engine, middleware.GuardConfig{})(inner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.UserID != 1 || seen.Email != "a@b.com" || seen.Role != reelauth.RoleUser {
		t.Fatalf("principal = %+v", seen)
	}
}

func TestGuardSkipsPublicRoutes(t *testing.T) {
	engine := newTestEngine(t)
	handler := middleware.Guard(engine, middleware.GuardConfig{
		PublicRoutes: []string{"/health", "/api/auth/**"},
	})(okHandler())

	for _, path := range []string{"/health", "/api/auth/login", "/api/auth/refresh/deep"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("public route %s got status %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/authx", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("/api/authx treated as public (status %d)", rec.Code)
	}
}

func TestGuardRejectsLoggedOutToken(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	pair, err := engine.Issue(ctx, reelauth.User{ID: 1, Email: "a@b.com", Role: reelauth.RoleUser})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := engine.Logout(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	handler := middleware.Guard(engine, middleware.GuardConfig{})(okHandler())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "invalid_token" {
		t.Fatalf("revoked token: status %d code %q", rec.Code, errorCode(t, rec))
	}
}

func TestRequireRole(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	userPair, err := engine.Issue(ctx, reelauth.User{ID: 1, Email: "a@b.com", Role: reelauth.RoleUser})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	adminPair, err := engine.Issue(ctx, reelauth.User{ID: 2, Email: "admin@b.com", Role: reelauth.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	guarded := middleware.Guard(engine, middleware.GuardConfig{})(
		middleware.RequireRole(reelauth.RoleAdmin)(okHandler()),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/movies/3", nil)
	req.Header.Set("Authorization", "Bearer "+userPair.AccessToken)
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("USER role got status %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/movies/3", nil)
	req.Header.Set("Authorization", "Bearer "+adminPair.AccessToken)
	guarded.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ADMIN role got status %d, want 200", rec.Code)
	}
}
