// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

type PasswordConfig struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

type PasswordHasher struct {
	config PasswordConfig
}

func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithParams(1, 64*1024, 4)
}

// NewPasswordHasherWithParams builds a hasher with explicit argon2id cost
// parameters. memory is in KiB.
func NewPasswordHasherWithParams(time, memory uint32, threads uint8) *PasswordHasher {
	return &PasswordHasher{
		config: PasswordConfig{
			time:    time,
			memory:  memory,
			threads: threads,
			keyLen:  32,
		},
	}
}

func (p *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		p.config.time,
		p.config.memory,
		p.config.threads,
		p.config.keyLen,
	)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.config.memory,
		p.config.time,
		p.config.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// decodeHash splits an encoded argon2id hash into its parameters, salt
// and key.
func decodeHash(encoded string) (PasswordConfig, []byte, []byte, error) {
	var cfg PasswordConfig

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return cfg, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return cfg, nil, nil, fmt.Errorf("%w: unsupported argon2 version", ErrMalformedHash)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &cfg.memory, &cfg.time, &cfg.threads); err != nil {
		return cfg, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}
	cfg.keyLen = uint32(len(key))
	return cfg, salt, key, nil
}

// Verify reports whether password matches encodedHash using the parameters
// stored in the hash.
func (p *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	cfg, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, cfg.time, cfg.memory, cfg.threads, cfg.keyLen)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with different cost
// parameters than the hasher's. Malformed hashes are left alone.
func (p *PasswordHasher) NeedsRehash(encodedHash string) bool {
	cfg, _, _, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}
	return cfg != p.config
}
