package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reelauth/reelauth/store"
)

const claimRefreshScript = `
local uid = redis.call("HGET", KEYS[1], "user_id")
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. uid, ARGV[2])
redis.call("ZREM", KEYS[2], ARGV[2] .. ":" .. uid)
return 1
`

var claimRefreshLua = redis.NewScript(claimRefreshScript)

const refreshSweepScript = `
local members = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[1])
for _, m in ipairs(members) do
  local sep = string.find(m, ":", 1, true)
  local h = string.sub(m, 1, sep - 1)
  local uid = string.sub(m, sep + 1)
  redis.call("DEL", ARGV[2] .. h)
  redis.call("SREM", ARGV[3] .. uid, h)
  redis.call("ZREM", KEYS[1], m)
end
return #members
`

var refreshSweepLua = redis.NewScript(refreshSweepScript)

// RefreshLog is the Redis-backed set of outstanding refresh tokens.
type RefreshLog struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRefreshLog creates a RefreshLog on the given client. prefix
// namespaces all keys; empty means the default.
func NewRefreshLog(rdb redis.UniversalClient, prefix string) *RefreshLog {
	return &RefreshLog{rdb: rdb, prefix: normalizePrefix(prefix)}
}

func (r *RefreshLog) key(hash string) string {
	return r.prefix + ":rt:" + hash
}

func (r *RefreshLog) userKey(userID int64) string {
	return r.prefix + ":rtu:" + strconv.FormatInt(userID, 10)
}

func (r *RefreshLog) userPrefix() string {
	return r.prefix + ":rtu:"
}

func (r *RefreshLog) indexKey() string {
	return r.prefix + ":rt:idx"
}

// Insert persists one refresh record. Idempotent on the token key.
func (r *RefreshLog) Insert(ctx context.Context, rec store.RefreshRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	hash := tokenHash(rec.Token)
	uid := strconv.FormatInt(rec.UserID, 10)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key(hash),
			"token", rec.Token,
			"user_id", uid,
			"created_at", strconv.FormatInt(rec.CreatedAt.Unix(), 10),
			"expires_at", strconv.FormatInt(rec.ExpiresAt.Unix(), 10),
		)
		pipe.Expire(ctx, r.key(hash), ttl)
		pipe.SAdd(ctx, r.userKey(rec.UserID), hash)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(rec.ExpiresAt.Unix()),
			Member: hash + ":" + uid,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return nil
}

// Exists reports whether the token is still outstanding.
func (r *RefreshLog) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(tokenHash(token))).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return n > 0, nil
}

// DeleteByToken claims and removes the record. The script is serialized by
// Redis, so under concurrent calls for the same token exactly one caller
// sees true; every other caller sees false.
func (r *RefreshLog) DeleteByToken(ctx context.Context, token string) (bool, error) {
	hash := tokenHash(token)
	existed, err := claimRefreshLua.Run(
		ctx,
		r.rdb,
		[]string{r.key(hash), r.indexKey()},
		r.userPrefix(),
		hash,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return existed == 1, nil
}

// FindAllByUser returns every outstanding record owned by the user. Index
// members whose value key already expired are dropped from the set as a
// side effect.
func (r *RefreshLog) FindAllByUser(ctx context.Context, userID int64) ([]store.RefreshRecord, error) {
	hashes, err := r.rdb.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if len(hashes) == 0 {
		return []store.RefreshRecord{}, nil
	}

	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(hashes))
	for i, h := range hashes {
		cmds[i] = pipe.HGetAll(ctx, r.key(h))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	records := make([]store.RefreshRecord, 0, len(hashes))
	for i, cmd := range cmds {
		fields, cmdErr := cmd.Result()
		if cmdErr != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, cmdErr)
		}
		if len(fields) == 0 {
			// Value key expired under us; drop the stale index member.
			_ = r.rdb.SRem(ctx, r.userKey(userID), hashes[i]).Err()
			continue
		}

		rec, ok := decodeRecord(fields)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// DeleteExpiredBefore removes every record whose expiry precedes cutoff.
func (r *RefreshLog) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	purged, err := refreshSweepLua.Run(
		ctx,
		r.rdb,
		[]string{r.indexKey()},
		strconv.FormatInt(cutoff.Unix(), 10),
		r.prefix+":rt:",
		r.userPrefix(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return purged, nil
}

func decodeRecord(fields map[string]string) (store.RefreshRecord, bool) {
	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return store.RefreshRecord{}, false
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return store.RefreshRecord{}, false
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return store.RefreshRecord{}, false
	}

	return store.RefreshRecord{
		Token:     fields["token"],
		UserID:    userID,
		CreatedAt: time.Unix(createdAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, true
}
