package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-tender-client/token"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := token.NewHMACSigner("secret", func() time.Time { return now })

	raw, err := signer.Sign(jwt.MapClaims{
		"sub": "user-1",
		"jti": "jti-1",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	})
	require.NoError(t, err)

	t.Run("reads claims without the key", func(t *testing.T) {
		in, err := token.Inspect(raw)
		require.NoError(t, err)
		require.Equal(t, "user-1", in.Subject)
		require.Equal(t, "jti-1", in.ID)
		require.True(t, in.ExpiresAt.Equal(now.Add(time.Minute)))
		require.False(t, in.ExpiredAt(now))
		require.True(t, in.ExpiredAt(now.Add(time.Minute)))
	})

	t.Run("opaque token", func(t *testing.T) {
		_, err := token.Inspect("a1")
		require.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := token.Inspect("  ")
		require.Error(t, err)
	})

	t.Run("no exp never expires", func(t *testing.T) {
		noExp, err := signer.Sign(jwt.MapClaims{"sub": "user-2"})
		require.NoError(t, err)
		in, err := token.Inspect(noExp)
		require.NoError(t, err)
		require.True(t, in.ExpiresAt.IsZero())
		require.False(t, in.ExpiredAt(now.Add(1000*time.Hour)))
	})
}

func TestHMACSigner_Verify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := now
	signer := token.NewHMACSigner("secret", func() time.Time { return clock })

	raw, err := signer.Sign(jwt.MapClaims{"sub": "user-1", "exp": now.Add(time.Minute).Unix()})
	require.NoError(t, err)

	claims, err := signer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims["sub"])

	t.Run("wrong secret", func(t *testing.T) {
		_, err := token.NewHMACSigner("other", func() time.Time { return now }).Verify(raw)
		require.Error(t, err)
	})

	t.Run("missing exp", func(t *testing.T) {
		noExp, err := signer.Sign(jwt.MapClaims{"sub": "user-1"})
		require.NoError(t, err)
		_, err = signer.Verify(noExp)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		clock = now.Add(2 * time.Minute)
		defer func() { clock = now }()
		_, err := signer.Verify(raw)
		require.Error(t, err)
	})
}

func TestRevokedTokenCache(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := now
	cache := token.NewInMemoryRevokedTokenCache(func() time.Time { return clock })

	cache.Add("a", now.Add(time.Minute))
	cache.Add("b", now.Add(time.Hour))
	cache.Add("", now.Add(time.Hour))
	require.True(t, cache.IsRevoked("a"))
	require.False(t, cache.IsRevoked(""))

	clock = now.Add(2 * time.Minute)
	require.Equal(t, 1, cache.Cleanup())
	require.False(t, cache.IsRevoked("a"))
	require.True(t, cache.IsRevoked("b"))
}
