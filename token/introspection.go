package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Introspection is what a client can learn about an access token without
// holding the signing key. Opaque (non-JWT) tokens yield an error.
type Introspection struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Inspect decodes the claims of a JWT without verifying its signature.
func Inspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, errors.Wrap(err, "token.Inspect ParseUnverified")
	}

	in := &Introspection{}
	in.Subject, _ = claims.GetSubject()
	in.ID, _ = claims["jti"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		in.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		in.ExpiresAt = exp.Time
	}
	return in, nil
}

// ExpiredAt reports whether the token is past its exp claim at now.
// Tokens without exp never expire client-side.
func (i *Introspection) ExpiredAt(now time.Time) bool {
	if i.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(i.ExpiresAt)
}
