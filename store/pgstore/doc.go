// Package pgstore implements the store contracts on PostgreSQL.
//
// Two tables back the subsystem, both keyed by the token string:
//
//	token_blacklist(token PK, blacklisted_at, expires_at)
//	refresh_tokens(token PK, user_id, created_at, expires_at)
//
// The primary key doubles as the idempotency guard for Insert
// (ON CONFLICT DO NOTHING) and the single-winner guard for DeleteByToken
// (the row count of a plain DELETE tells exactly one concurrent caller
// that it claimed the row). Schema management goes through goose with the
// migrations embedded in the binary; call [Migrate] once at startup.
package pgstore
