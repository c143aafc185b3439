// Package sessionx issues and verifies the stateless session assertion carried
// in the session cookie. The assertion is an HS256 JWT whose payload is
// {"sessionId", "exp", "user": {"id", "role"}}.
package sessionx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the absolute lifetime of a freshly issued session.
const DefaultTTL = 7 * 24 * time.Hour

// MinSecretSize is the shortest accepted HMAC key, in bytes.
const MinSecretSize = 32

var ErrWeakSecret = errors.New("sessionx: secret must be at least 32 bytes")

// User is the minimal projection of an account carried inside a session.
type User struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims is the session payload. Only exp is taken from the registered set.
type Claims struct {
	SessionID string           `json:"sessionId"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
	User      User             `json:"user"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetSubject() (string, error)                  { return c.User.ID, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// Codec signs and verifies session assertions with a single shared secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a Codec. A zero ttl selects DefaultTTL.
func NewCodec(secret []byte, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL reports the lifetime applied to issued sessions.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a new assertion for u with a random session id and an expiry
// of now + TTL.
func (c *Codec) Issue(u User) (string, time.Time, error) {
	if u.ID == "" || u.Role == "" {
		return "", time.Time{}, fmt.Errorf("sessionx: user id and role are required")
	}

	exp := c.now().Add(c.ttl).Truncate(time.Second)
	claims := Claims{
		SessionID: uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(exp),
		User:      u,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sessionx: sign: %w", err)
	}
	return signed, exp, nil
}

// Verify returns the user carried by token. Any malformed, tampered or
// expired token yields false; callers treat that exactly like no session.
func (c *Codec) Verify(token string) (User, bool) {
	claims, ok := c.parse(token)
	if !ok {
		return User{}, false
	}
	return claims.User, true
}

// Claims is like Verify but returns the whole payload.
func (c *Codec) Claims(token string) (Claims, bool) {
	return c.parse(token)
}

func (c *Codec) parse(token string) (Claims, bool) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, false
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	// The library checks the MAC with hmac.Equal.
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, false
	}

	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return Claims{}, false
	}
	if claims.User.ID == "" || claims.User.Role == "" {
		return Claims{}, false
	}
	return claims, true
}
