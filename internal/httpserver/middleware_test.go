package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpilot/pkg/trace"
)

func authRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PushAuthMiddleware(secret))
	r.POST("/notifications/push", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "push-sender",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestPushAuthValidToken(t *testing.T) {
	r := authRouter("test-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/push", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPushAuthMissingToken(t *testing.T) {
	r := authRouter("test-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/push", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPushAuthWrongSecret(t *testing.T) {
	r := authRouter("test-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/push", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPushAuthMalformedHeader(t *testing.T) {
	r := authRouter("test-secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/push", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTraceMiddlewarePropagatesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = trace.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(trace.HeaderName(), "abc123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", seen)
	assert.Equal(t, "abc123", w.Header().Get(trace.HeaderName()))
}

func TestTraceMiddlewareGeneratesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, w.Header().Get(trace.HeaderName()))
}
