package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelauth/reelauth/store"
)

const defaultPrefix = "ra"

func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizePrefix(prefix string) string {
	if prefix == "" {
		return defaultPrefix
	}
	return prefix
}

const blacklistSweepScript = `
local members = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[1])
for _, h in ipairs(members) do
  redis.call("DEL", ARGV[2] .. h)
  redis.call("ZREM", KEYS[1], h)
end
return #members
`

var blacklistSweepLua = redis.NewScript(blacklistSweepScript)

// Blacklist is the Redis-backed set of revoked tokens.
type Blacklist struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewBlacklist creates a Blacklist on the given client. prefix namespaces
// all keys; empty means the default.
func NewBlacklist(rdb redis.UniversalClient, prefix string) *Blacklist {
	return &Blacklist{rdb: rdb, prefix: normalizePrefix(prefix)}
}

func (b *Blacklist) key(hash string) string {
	return b.prefix + ":bl:" + hash
}

func (b *Blacklist) indexKey() string {
	return b.prefix + ":bl:idx"
}

// Insert records a revocation. Re-inserting a present token overwrites it
// with identical data, which makes the operation idempotent. A token whose
// expiry has already passed is skipped entirely: the entry would be
// eligible for pruning the moment it was written.
func (b *Blacklist) Insert(ctx context.Context, entry store.BlacklistEntry) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	hash := tokenHash(entry.Token)
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, b.key(hash), strconv.FormatInt(entry.BlacklistedAt.Unix(), 10), ttl)
		pipe.ZAdd(ctx, b.indexKey(), redis.Z{
			Score:  float64(entry.ExpiresAt.Unix()),
			Member: hash,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return nil
}

// Exists reports whether the token has been revoked.
func (b *Blacklist) Exists(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, b.key(tokenHash(token))).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return n > 0, nil
}

// DeleteExpiredBefore removes every entry whose expiry precedes cutoff.
func (b *Blacklist) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	purged, err := blacklistSweepLua.Run(
		ctx,
		b.rdb,
		[]string{b.indexKey()},
		strconv.FormatInt(cutoff.Unix(), 10),
		b.prefix+":bl:",
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return purged, nil
}
