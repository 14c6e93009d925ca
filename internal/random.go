package internal

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	refreshTokenRawSize = 64
	// RefreshTokenLength is the length of an encoded refresh token in characters.
	RefreshTokenLength = refreshTokenRawSize * 2
)

// NewRefreshToken returns 64 bytes from the system CSPRNG, lowercase hex encoded.
// No uniqueness check is made; collisions are treated as negligible.
func NewRefreshToken() (string, error) {
	var raw [refreshTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// ValidRefreshTokenShape reports whether token could have been produced by NewRefreshToken.
func ValidRefreshTokenShape(token string) bool {
	if len(token) != RefreshTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
