package reelauth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/reelauth/reelauth/internal/audit"
	"github.com/reelauth/reelauth/internal/flows"
	"github.com/reelauth/reelauth/jwt"
	"github.com/reelauth/reelauth/password"
	"github.com/reelauth/reelauth/store"
	"github.com/reelauth/reelauth/store/pgstore"
	"github.com/reelauth/reelauth/store/redisstore"
)

// Builder assembles an Engine. Configure with the With methods, then call
// Build exactly once.
type Builder struct {
	config Config

	redis  redis.UniversalClient
	pgPool *pgxpool.Pool

	blacklist store.Blacklist
	refresh   store.RefreshLog

	users     UserDirectory
	auditSink AuditSink

	clock func() time.Time
	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis selects the Redis store backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPostgres selects the Postgres store backend. Run pgstore.Migrate
// before Build.
func (b *Builder) WithPostgres(pool *pgxpool.Pool) *Builder {
	b.pgPool = pool
	return b
}

// WithStores supplies custom store implementations, overriding the Redis
// and Postgres backends.
func (b *Builder) WithStores(blacklist store.Blacklist, refresh store.RefreshLog) *Builder {
	b.blacklist = blacklist
	b.refresh = refresh
	return b
}

// WithUserDirectory supplies the application's account storage. Required.
func (b *Builder) WithUserDirectory(users UserDirectory) *Builder {
	b.users = users
	return b
}

// WithAuditSink supplies the audit event consumer. Without one, enabled
// auditing discards events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// withClock overrides the engine's time source. Tests only.
func (b *Builder) withClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration, wires stores and flows, and starts
// the cleanup janitor when enabled.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user directory required")
	}

	blacklist, refresh, err := b.resolveStores(cfg)
	if err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
		Clock:      clock,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		users:     b.users,
		blacklist: blacklist,
		refresh:   refresh,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   NewMetrics(cfg.Metrics),
		now:       clock,
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.flows = flows.New(engine.flowDeps())

	if cfg.Cleanup.Enabled {
		engine.janitor = startJanitor(cfg.Cleanup.Interval, clock, engine.SweepExpired)
	}

	b.built = true

	return engine, nil
}

func (b *Builder) resolveStores(cfg Config) (store.Blacklist, store.RefreshLog, error) {
	switch {
	case b.blacklist != nil && b.refresh != nil:
		return b.blacklist, b.refresh, nil
	case b.blacklist != nil || b.refresh != nil:
		return nil, nil, errors.New("custom stores must be supplied together")
	case b.redis != nil:
		return redisstore.NewBlacklist(b.redis, cfg.Store.RedisPrefix),
			redisstore.NewRefreshLog(b.redis, cfg.Store.RedisPrefix), nil
	case b.pgPool != nil:
		return pgstore.NewBlacklist(b.pgPool), pgstore.NewRefreshLog(b.pgPool), nil
	default:
		return nil, nil, errors.New("token store backend required")
	}
}

func (e *Engine) flowDeps() flows.Deps {
	parse := func(tokenStr string) (flows.TokenClaims, error) {
		claims, err := e.tokens.Parse(tokenStr)
		var tc flows.TokenClaims
		if claims != nil {
			tc = flows.TokenClaims{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			}
			if claims.ExpiresAt != nil {
				tc.ExpiresAt = claims.ExpiresAt.Time
			}
		}
		return tc, err
	}

	blacklistInsert := func(ctx context.Context, token string, expiresAt time.Time) error {
		return e.blacklist.Insert(ctx, store.BlacklistEntry{
			Token:         token,
			BlacklistedAt: e.now(),
			ExpiresAt:     expiresAt,
		})
	}

	issue := flows.IssueDeps{
		SignAccess:  e.tokens.SignAccess,
		SignRefresh: e.tokens.SignRefresh,
		SaveRefresh: func(ctx context.Context, token string, userID int64, createdAt, expiresAt time.Time) error {
			return e.refresh.Insert(ctx, store.RefreshRecord{
				Token:     token,
				UserID:    userID,
				CreatedAt: createdAt,
				ExpiresAt: expiresAt,
			})
		},
		Now: e.now,
	}

	return flows.Deps{
		Issue: issue,
		Validate: flows.ValidateDeps{
			BlacklistExists: e.blacklist.Exists,
			Parse:           parse,
			ExpiredErr:      jwt.ErrExpired,
		},
		Rotate: flows.RotateDeps{
			BlacklistExists: e.blacklist.Exists,
			Parse:           parse,
			ClaimRefresh:    e.refresh.DeleteByToken,
			BlacklistInsert: blacklistInsert,
			FindUser: func(ctx context.Context, userID int64) (*flows.UserRecord, error) {
				user, err := e.users.FindByID(ctx, userID)
				if err != nil || user == nil {
					return nil, err
				}
				return &flows.UserRecord{ID: user.ID, Email: user.Email, Role: user.Role}, nil
			},
			Issue: issue,
		},
		Revoke: flows.RevokeDeps{
			Parse:           parse,
			ExpiredErr:      jwt.ErrExpired,
			BlacklistInsert: blacklistInsert,
			DeleteRefresh:   e.refresh.DeleteByToken,
			FindRefreshByUser: func(ctx context.Context, userID int64) ([]flows.RefreshEntry, error) {
				records, err := e.refresh.FindAllByUser(ctx, userID)
				if err != nil {
					return nil, err
				}
				entries := make([]flows.RefreshEntry, len(records))
				for i, rec := range records {
					entries[i] = flows.RefreshEntry{Token: rec.Token, ExpiresAt: rec.ExpiresAt}
				}
				return entries, nil
			},
			Now: e.now,
		},
	}
}
