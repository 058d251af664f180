// Package token signs and verifies the service's compact bearer tokens.
// Session tokens and reset tokens share one HS256 signing key but carry a
// type claim so one kind can never stand in for the other.
package token

import (
	"errors"
	"time"

	"accounts_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Verify returns exactly one of these for any
// bad token.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// Kind distinguishes the two token kinds sharing the signing key.
type Kind string

const (
	KindSession Kind = "session"
	KindReset   Kind = "reset"
)

// Claims is the signed payload. Session tokens carry UserID and Role; reset
// tokens carry only UserID.
type Claims struct {
	UserID    int64  `json:"uid"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a symmetric secret read once at
// process start. Verification is pure; the injectable clock exists for tests.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// New creates a Codec from the configured signing secret.
func New(cfg config.JWTConfig, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(cfg.GetJWTSecret()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignSession issues a session token carrying the user's id and role.
func (c *Codec) SignSession(userID int64, role string, ttl time.Duration) (string, error) {
	return c.sign(Claims{
		UserID:    userID,
		Role:      role,
		TokenType: string(KindSession),
	}, ttl)
}

// SignReset issues a short-lived reset token carrying only the user's id.
func (c *Codec) SignReset(userID int64, ttl time.Duration) (string, error) {
	return c.sign(Claims{
		UserID:    userID,
		TokenType: string(KindReset),
	}, ttl)
}

func (c *Codec) sign(claims Claims, ttl time.Duration) (string, error) {
	issuedAt := c.now()
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature integrity, expiry, and token kind. The returned
// error is one of ErrMalformed, ErrSignatureInvalid, ErrExpired; a token of
// the wrong kind reports as malformed.
func (c *Codec) Verify(raw string, kind Kind) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSignatureInvalid
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, classify(err)
	}
	if !parsed.Valid {
		return Claims{}, ErrSignatureInvalid
	}
	if claims.TokenType != string(kind) {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return ErrMalformed
	}
}
