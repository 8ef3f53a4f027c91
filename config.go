package reelauth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/reelauth/reelauth/password"
)

// JWTConfig holds token codec settings.
type JWTConfig struct {
	// Secret signs and verifies tokens. HS256 requires at least 32 bytes.
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	// Leeway tolerates small clock skew when checking expiry.
	Leeway time.Duration
}

// CleanupConfig controls the background sweep of expired store entries.
type CleanupConfig struct {
	Enabled  bool
	Interval time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// StoreConfig holds backend-neutral store settings.
type StoreConfig struct {
	// RedisPrefix namespaces keys when the Redis backend is used.
	RedisPrefix string
}

// Config is the full engine configuration. Configure it before Build and
// treat it as immutable afterwards.
type Config struct {
	JWT      JWTConfig
	Password password.Params
	Cleanup  CleanupConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Store    StoreConfig
}

// DefaultConfig returns production-leaning defaults. The signing secret
// has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "reelauth",
			Leeway:     30 * time.Second,
		},
		Password: password.DefaultParams(),
		Cleanup: CleanupConfig{
			Enabled:  true,
			Interval: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("%w: secret must be at least 32 bytes", ErrInvalidSigningKey)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("access TTL must be positive, got %v", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return fmt.Errorf("refresh TTL %v must exceed access TTL %v", c.JWT.RefreshTTL, c.JWT.AccessTTL)
	}
	if c.JWT.Leeway < 0 {
		return fmt.Errorf("leeway must not be negative, got %v", c.JWT.Leeway)
	}
	if c.Cleanup.Enabled && c.Cleanup.Interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %v", c.Cleanup.Interval)
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.JWT.Secret = append([]byte(nil), c.JWT.Secret...)
	return out
}

// ConfigFromEnv builds a Config from REELAUTH_* environment variables,
// loading a .env file first when one is present. Unset variables keep
// their defaults; REELAUTH_JWT_SECRET is the only required one and is
// checked by Validate, not here.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if v := os.Getenv("REELAUTH_JWT_SECRET"); v != "" {
		cfg.JWT.Secret = []byte(v)
	}
	if v := os.Getenv("REELAUTH_JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("REELAUTH_REDIS_PREFIX"); v != "" {
		cfg.Store.RedisPrefix = v
	}

	var err error
	if cfg.JWT.AccessTTL, err = envDuration("REELAUTH_ACCESS_TTL", cfg.JWT.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.JWT.RefreshTTL, err = envDuration("REELAUTH_REFRESH_TTL", cfg.JWT.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.JWT.Leeway, err = envDuration("REELAUTH_JWT_LEEWAY", cfg.JWT.Leeway); err != nil {
		return Config{}, err
	}
	if cfg.Cleanup.Interval, err = envDuration("REELAUTH_CLEANUP_INTERVAL", cfg.Cleanup.Interval); err != nil {
		return Config{}, err
	}
	if cfg.Cleanup.Enabled, err = envBool("REELAUTH_CLEANUP_ENABLED", cfg.Cleanup.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.Audit.Enabled, err = envBool("REELAUTH_AUDIT_ENABLED", cfg.Audit.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.Metrics.Enabled, err = envBool("REELAUTH_METRICS_ENABLED", cfg.Metrics.Enabled); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", name, err)
	}
	return d, nil
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %v", name, err)
	}
	return b, nil
}
