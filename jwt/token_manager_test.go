package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, cfg Config) *tokenManagerImpl {
	t.Helper()
	tm, err := NewTokenManager(cfg, logger.FromZap(zap.NewNop(), "jwt"))
	require.NoError(t, err)
	return tm.(*tokenManagerImpl)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestManager(t, Config{Secret: "s3cret"})
	ctx := context.Background()

	token, err := m.GenerateAccessToken(ctx, "u1", "buyer")
	require.NoError(t, err)

	claims, err := m.VerifyToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, []string{"buyer"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, 2*time.Hour, claims.TTL(), float64(time.Minute))
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, Config{Secret: "s3cret"})

	t.Run("missing", func(t *testing.T) {
		_, err := m.VerifyToken(ctx, "")
		assert.ErrorIs(t, err, ErrTokenMissing)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.VerifyToken(ctx, "not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestManager(t, Config{Secret: "other"})
		token, err := other.GenerateAccessToken(ctx, "u1")
		require.NoError(t, err)

		_, err = m.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestManager(t, Config{Secret: "s3cret", TTL: time.Minute, ClockSkew: time.Second})
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.GenerateAccessToken(ctx, "u1")
		require.NoError(t, err)

		_, err = m.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("algorithm none rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1", Issuer: "yogan-market"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.VerifyToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newTestManager(t, Config{Secret: "s3cret", Issuer: "someone-else"})
		token, err := other.GenerateAccessToken(ctx, "u1")
		require.NoError(t, err)

		_, err = m.VerifyToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"empty secret", Config{Algorithm: "HS256", TTL: time.Hour}, ErrSecretEmpty},
		{"rsa unsupported", Config{Algorithm: "RS256", Secret: "x", TTL: time.Hour}, ErrAlgorithmNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), tt.wantErr)
		})
	}

	t.Run("defaults valid", func(t *testing.T) {
		cfg := Config{Secret: "x"}
		cfg.ApplyDefaults()
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "HS256", cfg.Algorithm)
	})
}
