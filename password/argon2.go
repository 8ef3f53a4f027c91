package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

var (
	// ErrHashFormat reports a stored hash that is not a valid argon2id
	// PHC string.
	ErrHashFormat = errors.New("invalid password hash format")
)

// Params are the argon2id cost parameters.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns moderate interactive-login costs.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Params) validate() error {
	if p.Memory < 8*1024 {
		return errors.New("password memory must be >= 8192 KB")
	}
	if p.Time < 1 {
		return errors.New("password time must be >= 1")
	}
	if p.Parallelism < 1 {
		return errors.New("password parallelism must be >= 1")
	}
	if p.SaltLength < 16 {
		return errors.New("password salt length must be >= 16")
	}
	if p.KeyLength < 16 {
		return errors.New("password key length must be >= 16")
	}
	return nil
}

// Hasher hashes and verifies passwords with fixed parameters.
type Hasher struct {
	params Params
}

// NewHasher validates the parameters and returns a Hasher.
func NewHasher(params Params) (*Hasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params}, nil
}

// Hash derives a PHC-encoded argon2id hash from the password. The raw
// password bytes are used as provided, without normalization.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the password matches the encoded hash. The
// comparison is constant time over the derived keys.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		params.Time,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsRehash reports whether the stored hash was produced with weaker
// parameters than the hasher's current ones.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	params, _, _, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	return params.Memory < h.params.Memory ||
		params.Time < h.params.Time ||
		params.Parallelism < h.params.Parallelism ||
		params.KeyLength != h.params.KeyLength, nil
}

func decodeHash(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return Params{}, nil, nil, ErrHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrHashFormat
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); err != nil {
		return Params{}, nil, nil, ErrHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < 16 {
		return Params{}, nil, nil, ErrHashFormat
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrHashFormat
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
