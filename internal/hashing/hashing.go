// Package hashing wraps argon2id for password storage. Hashes are encoded as
// PHC strings ($argon2id$v=19$m=…,t=…,p=…$salt$hash) so the salt and cost
// parameters travel with the hash and nothing is stored separately.
package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Baseline parameters: resistant to GPU/ASIC brute force while keeping a
// single verification in the tens of milliseconds.
const (
	DefaultTime    uint32 = 2
	DefaultMemory  uint32 = 64 * 1024 // KiB
	DefaultThreads uint8  = 2
	DefaultKeyLen  uint32 = 32
	DefaultSaltLen uint32 = 16

	MaxPasswordLen = 200
)

var (
	// ErrPasswordLength is returned by Hash for empty or oversized passwords.
	ErrPasswordLength = errors.New("password must be 1-200 characters")

	// ErrInvalidParams is returned by New for unusable cost parameters.
	ErrInvalidParams = errors.New("invalid argon2 parameters")
)

// Params are the tunable argon2id costs. They are encoded into every hash
// this Hasher produces; changing them affects new hashes only, and old hashes
// remain verifiable because verification reads costs back out of the hash.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32 // derived key bytes
	SaltLen uint32 // random salt bytes
}

// DefaultParams returns the baseline production parameters.
func DefaultParams() Params {
	return Params{
		Time:    DefaultTime,
		Memory:  DefaultMemory,
		Threads: DefaultThreads,
		KeyLen:  DefaultKeyLen,
		SaltLen: DefaultSaltLen,
	}
}

// Hasher hashes and verifies passwords with a fixed parameter set. It is
// immutable after construction and safe for concurrent use. Construct one
// explicitly and pass it where needed; there is no package-level instance, so
// tests can run with cheap parameters without touching process state.
type Hasher struct {
	params Params
}

// New validates p and returns a Hasher.
func New(p Params) (*Hasher, error) {
	if p.Time < 1 {
		return nil, fmt.Errorf("%w: time must be >= 1, got %d", ErrInvalidParams, p.Time)
	}
	if p.Threads < 1 {
		return nil, fmt.Errorf("%w: threads must be >= 1, got %d", ErrInvalidParams, p.Threads)
	}
	if p.Memory < 8*uint32(p.Threads) {
		return nil, fmt.Errorf("%w: memory %d KiB below 8*threads", ErrInvalidParams, p.Memory)
	}
	if p.KeyLen < 16 {
		return nil, fmt.Errorf("%w: key length must be >= 16, got %d", ErrInvalidParams, p.KeyLen)
	}
	if p.SaltLen < 8 {
		return nil, fmt.Errorf("%w: salt length must be >= 8, got %d", ErrInvalidParams, p.SaltLen)
	}
	return &Hasher{params: p}, nil
}

// Params returns the configured parameter set.
func (h *Hasher) Params() Params { return h.params }

// Hash derives an argon2id hash of password under a fresh random salt and
// returns it PHC-encoded. Empty and oversized passwords are rejected before
// any key derivation runs.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" || len(password) > MaxPasswordLen {
		return "", ErrPasswordLength
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return encode(h.params, salt, key), nil
}

// Verify reports whether password matches encoded. It returns false for empty
// inputs, malformed hashes, and mismatches; it never panics and never leaks
// which of those occurred. The digest comparison is constant-time.
func (h *Hasher) Verify(encoded, password string) bool {
	if encoded == "" || password == "" {
		return false
	}
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// NeedsRehash reports whether the parameters embedded in encoded differ from
// the hasher's current configuration. Callers typically check it after a
// successful Verify and rehash opportunistically. Malformed hashes report
// true: they cannot be trusted and should be replaced.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, _, _, err := decode(encoded)
	if err != nil {
		return true
	}
	return p.Time != h.params.Time ||
		p.Memory != h.params.Memory ||
		p.Threads != h.params.Threads ||
		p.KeyLen != h.params.KeyLen
}

// encode serializes an argon2id hash in PHC string format with unpadded
// standard base64, the convention shared by the reference implementations.
func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

// decode parses a PHC argon2id string into its parameters, salt, and digest.
func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, errors.New("malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var p Params
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return Params{}, nil, nil, fmt.Errorf("malformed cost %q", kv)
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Params{}, nil, nil, fmt.Errorf("malformed cost %q: %w", kv, err)
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			p.Threads = uint8(n)
		default:
			return Params{}, nil, nil, fmt.Errorf("unknown cost %q", k)
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return Params{}, nil, nil, errors.New("missing argon2 costs")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("decode hash: %w", err)
	}
	p.KeyLen = uint32(len(key))
	p.SaltLen = uint32(len(salt))

	return p, salt, key, nil
}
