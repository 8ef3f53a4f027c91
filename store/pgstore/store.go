package pgstore

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/reelauth/reelauth/store"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies the embedded schema migrations. Call once at process
// startup before constructing the stores.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return nil
}

// Blacklist is the Postgres-backed set of revoked tokens.
type Blacklist struct {
	pool *pgxpool.Pool
}

// NewBlacklist creates a Blacklist on the given pool.
func NewBlacklist(pool *pgxpool.Pool) *Blacklist {
	return &Blacklist{pool: pool}
}

// Insert records a revocation. The token primary key makes re-insertion a
// no-op. Tokens that are already past their expiry are not written.
func (b *Blacklist) Insert(ctx context.Context, entry store.BlacklistEntry) error {
	if !entry.ExpiresAt.After(time.Now()) {
		return nil
	}

	_, err := b.pool.Exec(ctx,
		`INSERT INTO token_blacklist (token, blacklisted_at, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING`,
		entry.Token, entry.BlacklistedAt, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether the token has been revoked.
func (b *Blacklist) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := b.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token = $1)`,
		token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return exists, nil
}

// DeleteExpiredBefore removes entries whose expiry precedes cutoff.
func (b *Blacklist) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := b.pool.Exec(ctx,
		`DELETE FROM token_blacklist WHERE expires_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

// RefreshLog is the Postgres-backed set of outstanding refresh tokens.
type RefreshLog struct {
	pool *pgxpool.Pool
}

// NewRefreshLog creates a RefreshLog on the given pool.
func NewRefreshLog(pool *pgxpool.Pool) *RefreshLog {
	return &RefreshLog{pool: pool}
}

// Insert persists one refresh record. Idempotent on the token key.
func (r *RefreshLog) Insert(ctx context.Context, rec store.RefreshRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (token, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token) DO NOTHING`,
		rec.Token, rec.UserID, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Exists reports whether the token is still outstanding.
func (r *RefreshLog) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM refresh_tokens WHERE token = $1)`,
		token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return exists, nil
}

// DeleteByToken removes the record and reports whether it existed. The
// row count of the DELETE is the atomic claim: exactly one of two
// concurrent rotations for the same token observes 1.
func (r *RefreshLog) DeleteByToken(ctx context.Context, token string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1`, token,
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindAllByUser returns every outstanding record owned by the user.
func (r *RefreshLog) FindAllByUser(ctx context.Context, userID int64) ([]store.RefreshRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT token, user_id, created_at, expires_at
		 FROM refresh_tokens
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer rows.Close()

	records := []store.RefreshRecord{}
	for rows.Next() {
		var rec store.RefreshRecord
		if err := rows.Scan(&rec.Token, &rec.UserID, &rec.CreatedAt, &rec.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return records, nil
}

// DeleteExpiredBefore removes records whose expiry precedes cutoff.
func (r *RefreshLog) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}
