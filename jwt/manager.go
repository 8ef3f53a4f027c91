package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Decode failure sentinels. Parse returns exactly one of these (possibly
// wrapped) for any invalid token.
var (
	// ErrExpired is returned for a well-formed, correctly signed token
	// whose expiry has passed. Parse still returns the decoded claims
	// alongside it.
	ErrExpired = errors.New("token expired")
	// ErrSignature is returned when the token signature does not verify.
	ErrSignature = errors.New("token signature invalid")
	// ErrMalformed is returned for tokens that are not structurally valid.
	ErrMalformed = errors.New("token malformed")
	// ErrIDClaim is returned when the id claim is missing or not numeric.
	ErrIDClaim = errors.New("invalid user id claim")
)

const minSecretLen = 32

// Config carries the signing material and token lifetimes. A Config is
// validated once by NewManager and never mutated afterwards.
type Config struct {
	// Secret is the symmetric HS256 signing key. Must be at least 32 bytes.
	Secret []byte
	// AccessTTL and RefreshTTL are the lifetimes stamped into issued
	// tokens. RefreshTTL must not be shorter than AccessTTL.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Issuer, when set, is stamped into and required from every token.
	Issuer string
	// Leeway tolerates small clock drift during validation. At most two
	// minutes.
	Leeway time.Duration
	// Clock overrides the time source. Nil means time.Now.
	Clock func() time.Time
}

// Manager signs and parses tokens. Safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the decoded payload of a reelauth token. The user id travels
// as a JSON number claim named "id"; UserID holds the verified numeric
// value after Parse.
type Claims struct {
	RawID any    `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims

	// UserID is populated by Parse from RawID. It is not part of the wire
	// payload itself.
	UserID int64 `json:"-"`
}

// NewManager validates cfg and returns an immutable Manager. A short or
// missing secret is a construction-time failure: the process must not
// start with a key it cannot sign with.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minSecretLen)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// SignAccess mints an access token for the given identity and returns the
// token string with its expiry.
func (m *Manager) SignAccess(id int64, email, role string) (string, time.Time, error) {
	return m.sign(id, email, role, m.config.AccessTTL, "")
}

// SignRefresh mints a refresh token. A random jti claim keeps two refresh
// tokens issued to the same user within the same second distinct, so the
// token string can serve as a store primary key.
func (m *Manager) SignRefresh(id int64, email, role string) (string, time.Time, error) {
	return m.sign(id, email, role, m.config.RefreshTTL, uuid.NewString())
}

func (m *Manager) sign(id int64, email, role string, ttl time.Duration, jti string) (string, time.Time, error) {
	now := m.config.Clock()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RawID: id,
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Parse verifies and decodes a token. On ErrExpired the decoded claims are
// returned alongside the error so that revocation paths can still read the
// identity and expiry out of a stale token.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.config.Clock),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		claims, _ := claimsOf(token)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			if claims == nil {
				return nil, ErrExpired
			}
			if idErr := resolveUserID(claims); idErr != nil {
				return nil, idErr
			}
			return claims, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	claims, ok := claimsOf(token)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if err := resolveUserID(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func claimsOf(token *jwt.Token) (*Claims, bool) {
	if token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}

// resolveUserID coerces the wire id claim to int64. The original payload
// may carry it as a JSON number (float64 after decoding) or, from older
// issuers, as a numeric string; anything else is a decode failure rather
// than a silent default.
func resolveUserID(c *Claims) error {
	switch v := c.RawID.(type) {
	case float64:
		id := int64(v)
		if float64(id) != v {
			return ErrIDClaim
		}
		c.UserID = id
		return nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return ErrIDClaim
		}
		c.UserID = id
		return nil
	case int64:
		c.UserID = v
		return nil
	default:
		return ErrIDClaim
	}
}
