package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func testAuthService() *service.AuthService {
	cfg := &config.Config{JWTSecret: testSecret, JWTExpiry: time.Hour}
	return service.NewAuthService(cfg, nil, nil)
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	now := time.Now()
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "c1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		ClientID: "c1",
		Scopes:   []string{"read"},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// jwtProbe runs a request through the header-based JWT middleware and echoes
// the client id the handler saw.
func jwtProbe(t *testing.T, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/probe", RequireClientJWT(testAuthService()), func(c *gin.Context) {
		claims := GetClaims(c)
		require.NotNil(t, claims)
		c.String(http.StatusOK, claims.ClientID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	mutate(req)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireClientJWTBearerHeader(t *testing.T) {
	token := signToken(t, testSecret)
	w := jwtProbe(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", w.Body.String())
}

func TestRequireClientJWTLowercaseBearer(t *testing.T) {
	token := signToken(t, testSecret)
	w := jwtProbe(t, func(req *http.Request) {
		req.Header.Set("Authorization", "bearer "+token)
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireClientJWTQueryFallback(t *testing.T) {
	// EventSource cannot set headers, so the token rides the query string.
	token := signToken(t, testSecret)
	w := jwtProbe(t, func(req *http.Request) {
		q := req.URL.Query()
		q.Set("token", token)
		req.URL.RawQuery = q.Encode()
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireClientJWTMissingToken(t *testing.T) {
	w := jwtProbe(t, func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireClientJWTWrongSecret(t *testing.T) {
	token := signToken(t, "some-other-secret")
	w := jwtProbe(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireClientWSAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", RequireClientWSAuth(testAuthService()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Valid query token passes.
	token := signToken(t, testSecret)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Missing token is rejected before upgrade.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
