// Package reelauth issues, validates, and revokes the signed tokens of a
// movie-catalog backend. Access and refresh tokens are HS256 JWTs; a
// durable blacklist makes revocation effective before expiry, refresh
// tokens are single use and rotate atomically, and a background janitor
// prunes expired store entries.
//
// Build an Engine once at startup:
//
//	engine, err := reelauth.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserDirectory(users).
//		Build()
//
// and guard HTTP routes with the middleware package.
package reelauth
