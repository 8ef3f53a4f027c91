// Package password hashes and verifies credentials with argon2id. Hashes
// are stored in PHC string format, so the parameters travel with the hash
// and can be tightened later without invalidating existing records.
package password
