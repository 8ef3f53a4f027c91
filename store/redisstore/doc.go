// Package redisstore implements the store contracts on Redis.
//
// Layout per configured prefix (default "ra"):
//
//	<p>:bl:<h>      revoked token marker, expires with the token
//	<p>:bl:idx      ZSET of blacklist hashes scored by expiry
//	<p>:rt:<h>      HASH holding one refresh record
//	<p>:rtu:<uid>   SET of refresh hashes owned by a user
//	<p>:rt:idx      ZSET of "<h>:<uid>" members scored by expiry
//
// where <h> is the hex SHA-256 of the token string; hashing keeps key
// sizes bounded regardless of token length. Values additionally carry a
// native Redis TTL, so the expiry ZSETs exist to make DeleteExpiredBefore
// a cheap, exact sweep of the index structures rather than a SCAN.
//
// Single-winner semantics for DeleteByToken and the expiry sweeps run as
// Lua scripts: Redis serializes script execution, so exactly one of two
// concurrent rotations can claim a refresh token.
package redisstore
