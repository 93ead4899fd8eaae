// Package password hashes and verifies user credentials with argon2id.
//
// Hashes are stored in PHC string format so parameters can be tuned later
// without invalidating existing rows.
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

// ErrHashMalformed is returned when a stored hash cannot be parsed.
var ErrHashMalformed = errors.New("malformed password hash")

// Params controls the argon2id cost settings.
type Params struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the cost settings used when none are configured.
func DefaultParams() Params {
	return Params{
		MemoryKB:    64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher produces and verifies argon2id password hashes.
//
// Hasher instances are configured once and safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher validates params and returns a ready Hasher.
func NewHasher(p Params) (*Hasher, error) {
	if p.MemoryKB < 8*1024 {
		return nil, errors.New("argon2 memory below 8 MiB")
	}
	if p.Time < 1 || p.Parallelism < 1 {
		return nil, errors.New("argon2 time and parallelism must be positive")
	}
	if p.SaltLength < 16 || p.KeyLength < 16 {
		return nil, errors.New("argon2 salt and key must be at least 16 bytes")
	}
	return &Hasher{params: p}, nil
}

// Hash derives an argon2id hash for the given password and encodes it in
// PHC format.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.MemoryKB,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.MemoryKB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the stored PHC hash.
// Comparison is constant-time.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	memoryKB, timeCost, parallelism, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		timeCost,
		memoryKB,
		parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

func decodePHC(encoded string) (memoryKB, timeCost uint32, parallelism uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, ErrHashMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrHashMalformed
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return 0, 0, 0, nil, nil, ErrHashMalformed
	}
	if m == 0 || t == 0 || p == 0 {
		return 0, 0, 0, nil, nil, ErrHashMalformed
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < 8 {
		return 0, 0, 0, nil, nil, ErrHashMalformed
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < 16 {
		return 0, 0, 0, nil, nil, ErrHashMalformed
	}

	return m, t, p, salt, key, nil
}
