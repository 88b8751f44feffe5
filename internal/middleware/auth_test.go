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

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireOperator(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString("operator_email")})
	})
	return router
}

func perform(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireOperator(t *testing.T) {
	router := protectedRouter()

	t.Run("valid operator token passes", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":  "ops@example.com",
			"role": "operator",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		w := perform(router, "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ops@example.com")
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		w := perform(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		w := perform(router, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong signing key is unauthorized", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"role": "operator",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, []byte("other-secret"))

		w := perform(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"role": "operator",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		}, testSecret)

		w := perform(router, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-operator role is forbidden", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub":  "viewer@example.com",
			"role": "viewer",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		w := perform(router, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
