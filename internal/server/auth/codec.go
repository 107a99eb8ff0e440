// Package auth implements the token codec and the credential verifier for
// the session core.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/clockx"
	"github.com/dmitrijs2005/sessioncore/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the payload signed into every token. The registered claims
// carry subject, issued-at, expires-at, and (for refresh tokens) the
// unique token identifier.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"knd"`
}

// NewClaims builds the claims for a token of the given kind. tokenID must
// be empty for access tokens and set for refresh tokens.
func NewClaims(subject string, kind TokenKind, tokenID string, now time.Time, ttl time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        tokenID,
		},
		Kind: kind,
	}
}

// SigningKey pairs a key identifier with its HMAC secret.
type SigningKey struct {
	ID     string
	Secret []byte
}

// Codec mints and verifies compact signed tokens (HS256 JWTs). Keys are
// ordered newest first: the first key signs new tokens, and every key is
// tried during verification so tokens signed under a rotated-out key keep
// verifying for as long as the key stays in the list.
type Codec struct {
	keys  []SigningKey
	clock clockx.Clock
}

func NewCodec(keys []SigningKey, clock clockx.Clock) (*Codec, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one signing key is required")
	}
	for _, k := range keys {
		if k.ID == "" || len(k.Secret) == 0 {
			return nil, errors.New("signing key with empty id or secret")
		}
	}
	return &Codec{keys: keys, clock: clock}, nil
}

// Mint signs claims under the newest key and returns the compact token.
func (c *Codec) Mint(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = c.keys[0].ID
	return token.SignedString(c.keys[0].Secret)
}

// Verify checks the signature and claims of token and returns its Claims.
// Failures map to common.ErrTokenMalformed, common.ErrSignatureInvalid,
// and common.ErrTokenExpired so callers can branch on each distinctly. The
// signature is checked before any claim is trusted.
func (c *Codec) Verify(token string) (*Claims, error) {
	return c.parse(token, true)
}

// Decode checks the structure and signature of token but skips claim
// validation, so an expired token still decodes. Logout uses this to
// accept a well-signed refresh token past its expiry.
func (c *Codec) Decode(token string) (*Claims, error) {
	return c.parse(token, false)
}

func (c *Codec) parse(token string, validateClaims bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
	}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	var lastErr error
	for _, key := range c.keys {
		secret := key.Secret
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, opts...)
		if err == nil {
			return claims, nil
		}
		lastErr = err
		// Only a signature mismatch justifies trying the next key.
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}
	return nil, mapTokenError(lastErr)
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrTokenMalformed
	}
}
