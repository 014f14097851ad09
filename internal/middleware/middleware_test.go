package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":   c.GetUint(ContextUserID),
			"role": c.GetString(ContextUserRole),
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid := jwt.MapClaims{"user_id": 5, "role": "ADMIN", "email": "a@b.c", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name     string
		header   string
		expected int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", valid), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 5, "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"missing user id", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "ADMIN"}), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, valid), http.StatusOK},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestAuthMiddleware_EmptySecretRejectsTokens(t *testing.T) {
	r := gin.New()
	r.Use(AuthMiddleware(""))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextUserRole)) })

	forged := signToken(t, "", jwt.MapClaims{"user_id": 1, "role": "ADMIN"})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "ADMIN")
}

func TestAuthMiddleware_SetsContext(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"user_id": 5, "role": "ADMIN"})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	newAuthRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5,"role":"ADMIN"}`, w.Body.String())
}

func TestCustomLoggerMiddleware_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(CustomLoggerMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("https://browse.example.org"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://browse.example.org", w.Header().Get("Access-Control-Allow-Origin"))
}
