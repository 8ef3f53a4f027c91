// Package jwt is the token codec for reelauth. It signs and parses the
// HS256 access and refresh tokens that carry the authenticated identity:
// subject (email), numeric user id, role, issued-at, and expiry.
//
// # Failure taxonomy
//
// Parse distinguishes four decode outcomes so that callers can log and map
// them precisely:
//
//   - [ErrExpired] — structurally valid, signature good, past exp.
//   - [ErrSignature] — signature does not verify.
//   - [ErrMalformed] — not a well-formed token at all.
//   - [ErrIDClaim] — well-formed token whose id claim is not numeric.
//
// The engine collapses all four into a single invalid outcome for security
// decisions; the distinction exists only for audit detail and for the
// lenient parse used by logout.
//
// # What this package must NOT do
//
//   - Consult the blacklist or any store (the engine owns revocation).
//   - Hold mutable state: a Manager is immutable after construction.
package jwt
