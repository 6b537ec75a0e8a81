package devserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *User
	ContextKeyUser ContextKey = "user"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth validates the Bearer access token and loads its user.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeDetail(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			writeDetail(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		claims, err := s.signer.Verify(parts[1])
		if err != nil {
			s.logger.Debug().Err(err).Msg("access token rejected")
			writeDetail(w, http.StatusUnauthorized, "token is invalid or expired")
			return
		}
		if typ, _ := claims["token_type"].(string); typ != "access" {
			writeDetail(w, http.StatusUnauthorized, "token is not an access token")
			return
		}
		if jti, _ := claims["jti"].(string); s.revoked.IsRevoked(jti) {
			writeDetail(w, http.StatusUnauthorized, "token has been revoked")
			return
		}

		subject, _ := claims.GetSubject()
		user, err := s.users.GetByUsername(subject)
		if err != nil || user.Blocked {
			writeDetail(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		ctx = context.WithValue(ctx, ContextKeyClaims, claims)
		next(w, r.WithContext(ctx))
	}
}

func userFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ContextKeyUser).(*User)
	return u
}

// issueAccess signs a short-lived access token for username and binds it to
// the refresh token it was issued alongside.
func (s *Server) issueAccess(username, refresh string) (string, error) {
	now := s.nowFunc()
	exp := now.Add(s.config.GetAccessTokenExpiry())
	jti := uuid.NewString()

	signed, err := s.signer.Sign(jwt.MapClaims{
		"sub":        username,
		"jti":        jti,
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
		"token_type": "access",
	})
	if err != nil {
		return "", err
	}
	if err := s.refresh.BindAccess(refresh, jti, exp); err != nil {
		return "", err
	}
	return signed, nil
}

// revokeAccess blacklists an access token until its natural expiry.
func (s *Server) revokeAccess(jti string, exp time.Time) {
	if jti == "" || !exp.After(s.nowFunc()) {
		return
	}
	s.revoked.Add(jti, exp)
}
