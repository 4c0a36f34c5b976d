package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/cardledger/backend/internal/models"
)

func signToken(t *testing.T, tokenType string, role models.UserRole, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    int64(3),
		"role":       string(role),
		"token_type": tokenType,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(viper.GetString("jwt.secret_key")))
	assert.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret-key")
	InitAuthMiddleware(nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, int64(3), userID)

		role, ok := RoleFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, models.RoleUser, role)

		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid access token passes through", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards/my", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "access", models.RoleUser, time.Hour))
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards/my", nil)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards/my", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token is not a session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards/my", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "refresh", models.RoleUser, time.Hour))
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cards/my", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "access", models.RoleUser, -time.Hour))
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret-key")
	InitAuthMiddleware(nil)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	admin := AuthMiddleware(RequireRole(models.RoleAdmin)(next))

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "access", models.RoleAdmin, time.Hour))
		w := httptest.NewRecorder()

		admin.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("user forbidden", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/cards", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "access", models.RoleUser, time.Hour))
		w := httptest.NewRecorder()

		admin.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
