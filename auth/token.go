package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

// TokenTTL is the fixed lifetime of an issued token.
const TokenTTL = 24 * time.Hour

const issuer = "portfolio-backoffice"

type Claims struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 tokens. Tokens cannot be revoked
// server-side; logout only discards the client copy.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer uses secret as the signing key. An empty secret is replaced
// by a random one, which invalidates every token on restart.
func NewTokenIssuer(secret string) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("generate signing key: %v", err))
		}
		log.Warn().Msg("JWT_SECRET not set, using an ephemeral signing key")
	}
	return &TokenIssuer{secret: key, ttl: TokenTTL, now: time.Now}
}

// Issue returns a signed token for identity and its expiry.
func (t *TokenIssuer) Issue(identity string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := Claims{
		Username:      identity,
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, errs.NewInternalErrorWithCause("failed to sign token", err)
	}
	return signed, expires, nil
}

// Validate checks signature, algorithm and expiry and returns the identity.
func (t *TokenIssuer) Validate(token string) (string, error) {
	if token == "" {
		return "", errs.NewMissingTokenError()
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", errs.NewExpiredTokenError(err)
	case err != nil:
		return "", errs.NewInvalidTokenError(err)
	case !parsed.Valid || !claims.Authenticated || claims.Username == "":
		return "", errs.NewInvalidTokenError(nil)
	}
	return claims.Username, nil
}
