package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KOMKZ/yogan-market/jwt"
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopLogger() *logger.CtxZapLogger {
	return logger.FromZap(zap.NewNop(), "http")
}

func newTokenManager(t *testing.T) jwt.TokenManager {
	t.Helper()
	tm, err := jwt.NewTokenManager(jwt.Config{Secret: "middleware-test-secret"}, nopLogger())
	require.NoError(t, err)
	return tm
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
