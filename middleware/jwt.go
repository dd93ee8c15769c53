package middleware

import (
	"errors"
	"strings"

	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "jwt_claims"
	userIDKey = "user_id"
)

// JWTConfig JWT middleware configuration
type JWTConfig struct {
	// Skipper bypasses authentication for the request when true
	Skipper func(*gin.Context) bool

	// TokenHeadName token prefix in the Authorization header
	TokenHeadName string
}

// SkipPaths skips requests whose path is in paths
func SkipPaths(paths ...string) func(*gin.Context) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(c *gin.Context) bool {
		return set[c.Request.URL.Path]
	}
}

// JWT verifies the bearer token and stores its claims.
// Failures answer 401 {"error":"Unauthorized"} and stop the chain.
func JWT(tm jwt.TokenManager, cfg JWTConfig) gin.HandlerFunc {
	if cfg.TokenHeadName == "" {
		cfg.TokenHeadName = "Bearer"
	}

	return func(c *gin.Context) {
		if cfg.Skipper != nil && cfg.Skipper(c) {
			c.Next()
			return
		}

		token, err := extractToken(c, cfg.TokenHeadName)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		claims, err := tm.VerifyToken(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userIDKey, claims.UserID())

		c.Next()
	}
}

func extractToken(c *gin.Context, headName string) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", jwt.ErrTokenMissing
	}

	token, found := strings.CutPrefix(header, headName+" ")
	if !found || token == "" {
		return "", jwt.ErrTokenInvalid
	}
	return token, nil
}

func abortUnauthorized(c *gin.Context, err error) {
	e := errcode.ErrUnauthorized
	if errors.Is(err, jwt.ErrTokenExpired) {
		e = e.WithMsgf("token expired")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(e.HTTPStatus(), e.Body())
}

// GetClaims retrieves JWT claims from gin.Context
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// GetUserID retrieves the authenticated user id from gin.Context
func GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
