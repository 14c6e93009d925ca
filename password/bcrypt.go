package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the number of bcrypt rounds (log2) applied when Config.Cost is zero.
	DefaultCost = 10
	// DefaultMinLength is the shortest plaintext accepted by Hash when Config.MinLength is zero.
	DefaultMinLength = 8
	// maxPassBytes is the bcrypt input limit; longer inputs would be silently truncated.
	maxPassBytes = 72
)

var (
	// ErrTooShort is returned by Hash for passwords below the configured minimum length.
	ErrTooShort = errors.New("password too short")
	// ErrTooLong is returned by Hash for passwords above the bcrypt input limit.
	ErrTooLong = errors.New("password exceeds 72 bytes")
	// ErrMalformedHash is returned by Verify and NeedsUpgrade for values that are not bcrypt hashes.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Config controls the bcrypt work factor and the minimum accepted plaintext length.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Cost      int
	MinLength int
}

// Bcrypt hashes and verifies passwords with a salted, adaptive bcrypt hash.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates cfg and returns a ready hasher. Zero fields take the package defaults.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Bcrypt{config: cfg}, nil
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.config.Cost
}

// Hash returns a salted bcrypt hash of password.
//
// Hash may return an error when the password violates the length policy or the
// system random source fails.
func (b *Bcrypt) Hash(password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) < b.config.MinLength {
		return "", ErrTooShort
	}
	if len(password) > maxPassBytes {
		return "", ErrTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.config.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether password matches encodedHash.
//
// A mismatch is reported as (false, nil). Verify returns an error only when
// encodedHash cannot be interpreted as a bcrypt hash.
func (b *Bcrypt) Verify(password string, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}

// NeedsUpgrade reports whether encodedHash was produced with a lower cost than
// the one currently configured.
func (b *Bcrypt) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, ErrMalformedHash
	}

	return cost < b.config.Cost, nil
}

func validateConfig(cfg Config) error {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return fmt.Errorf("password cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.MinLength < 1 || cfg.MinLength > maxPassBytes {
		return fmt.Errorf("password min length must be within [1, %d]", maxPassBytes)
	}

	return nil
}
