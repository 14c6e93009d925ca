package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure returned by ParseAccess. Bad signatures,
// malformed payloads, wrong algorithms and expired tokens are deliberately
// indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// minSecretBytes is the shortest HMAC secret accepted by NewManager.
const minSecretBytes = 32

// SigningMethod names one of the supported symmetric signing algorithms.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256. It is the default.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 signs with HMAC-SHA384.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 signs with HMAC-SHA512.
	MethodHS512 SigningMethod = "hs512"
)

// Config defines how access tokens are signed and verified.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Secret        []byte
	AccessTTL     time.Duration
	SigningMethod SigningMethod
	Issuer        string
	Leeway        time.Duration
	// Now overrides the clock used for issuing and validating tokens. Nil means time.Now.
	Now func() time.Time
}

// Manager issues and verifies stateless access tokens.
//
// Manager is safe for concurrent use.
type Manager struct {
	config Config
	method jwt.SigningMethod
}

// AccessClaims is the signed payload of an access token.
type AccessClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager. The secret is copied.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var method jwt.SigningMethod
	switch cfg.SigningMethod {
	case MethodHS256:
		method = jwt.SigningMethodHS256
	case MethodHS384:
		method = jwt.SigningMethodHS384
	case MethodHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.New("unsupported signing method")
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	return &Manager{config: cfg, method: method}, nil
}

// AccessTTL returns the configured access-token lifetime.
func (j *Manager) AccessTTL() time.Duration {
	return j.config.AccessTTL
}

// CreateAccess signs {_id: userID} with the configured TTL.
func (j *Manager) CreateAccess(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("access token requires a user id")
	}

	now := j.config.Now()
	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}

	return jwt.NewWithClaims(j.method, claims).SignedString(j.config.Secret)
}

// ParseAccess verifies signature and expiry of tokenStr and returns its claims.
// Every failure is reported as ErrInvalidToken.
func (j *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.config.Now),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.method.Alg() {
			return nil, ErrInvalidToken
		}
		return j.config.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
