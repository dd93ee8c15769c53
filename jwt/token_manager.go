// Package jwt issues and verifies HMAC-signed access tokens.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenManager token management interface
type TokenManager interface {
	// GenerateAccessToken signs a token for subject
	GenerateAccessToken(ctx context.Context, subject string, roles ...string) (string, error)

	// VerifyToken validates and parses the token
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

type tokenManagerImpl struct {
	config        Config
	signingMethod jwt.SigningMethod
	key           []byte
	logger        *logger.CtxZapLogger
	now           func() time.Time
}

// NewTokenManager creates TokenManager
func NewTokenManager(cfg Config, log *logger.CtxZapLogger) (TokenManager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logger.GetLogger("jwt")
	}

	m := &tokenManagerImpl{
		config: cfg,
		key:    []byte(cfg.Secret),
		logger: log,
		now:    time.Now,
	}

	switch cfg.Algorithm {
	case "HS256":
		m.signingMethod = jwt.SigningMethodHS256
	case "HS384":
		m.signingMethod = jwt.SigningMethodHS384
	case "HS512":
		m.signingMethod = jwt.SigningMethodHS512
	}

	return m, nil
}

// GenerateAccessToken signs a token with a fresh JTI
func (m *tokenManagerImpl) GenerateAccessToken(ctx context.Context, subject string, roles ...string) (string, error) {
	now := m.now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			ID:        uuid.NewString(),
		},
		Roles: roles,
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	signed, err := jwt.NewWithClaims(m.signingMethod, claims).SignedString(m.key)
	if err != nil {
		m.logger.ErrorCtx(ctx, "failed to sign token",
			zap.Error(err),
			zap.String("subject", subject))
		return "", fmt.Errorf("sign token failed: %w", err)
	}

	m.logger.DebugCtx(ctx, "access token generated",
		zap.String("subject", subject),
		zap.Duration("ttl", m.config.TTL))

	return signed, nil
}

// VerifyToken validates signature, algorithm, expiry and issuer
func (m *tokenManagerImpl) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signingMethod.Alg()}),
		jwt.WithLeeway(m.config.ClockSkew),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	}, opts...)
	if err != nil {
		m.logger.WarnCtx(ctx, "token verification failed", zap.Error(err))
		return nil, mapParseError(err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
