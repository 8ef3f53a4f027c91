// Package middleware guards HTTP routes with engine-validated bearer
// tokens. Guard skips allowlisted public routes, rejects requests with a
// machine-readable error code, and attaches the verified principal to the
// request context; RequireRole layers authorization on top.
package middleware
