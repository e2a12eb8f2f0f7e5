package utils // package utils provides token signing and password hashing helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens

	"github.com/iliyamo/user-directory/internal/model"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string. Exp stores the expiration
// timestamp. Access tokens are sent in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenSubject is what a verified token asserts about its bearer.
type TokenSubject struct {
	Subject string // user name the token was issued to
	Role    string // role at issue time
}

// Claims is the JWT payload: the registered claims plus the role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 bearer tokens with a shared secret.
// It performs no I/O; the caller supplies "now" so expiry is deterministic.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec builds a codec signing with secret and issuing tokens that
// live for ttl.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue builds and signs a token for subject with the standard claims
// sub, iat and exp plus the role claim. exp is carried in whole seconds,
// so it is rounded up and the token never dies before now+ttl.
func (c *TokenCodec) Issue(subject, role string, now time.Time) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(c.ttl)
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		exp = t.Add(time.Second)
	}
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks the signature and expiry of raw as of now. It returns
// model.ErrTokenExpired when exp <= now and model.ErrTokenInvalid for any
// other defect (bad signature, wrong algorithm, malformed, missing subject).
func (c *TokenCodec) Verify(raw string, now time.Time) (TokenSubject, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC before handing out the key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenSubject{}, model.ErrTokenExpired
		}
		return TokenSubject{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return TokenSubject{}, model.ErrTokenInvalid
	}
	return TokenSubject{Subject: claims.Subject, Role: claims.Role}, nil
}

// IsValidFor reports whether raw verifies as of now and was issued to
// expectedSubject.
func (c *TokenCodec) IsValidFor(raw, expectedSubject string, now time.Time) bool {
	sub, err := c.Verify(raw, now)
	if err != nil {
		return false
	}
	return sub.Subject == expectedSubject
}
