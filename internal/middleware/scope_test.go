package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

// scopeProbe routes a request through RequireScope with the given claims
// preloaded, as the JWT middleware would have left them.
func scopeProbe(t *testing.T, scope string, claims *service.Claims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextKeyClaims, claims)
		}
		c.Next()
	})
	r.GET("/probe", RequireScope(scope), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequireScopeWithoutClaims(t *testing.T) {
	w := scopeProbe(t, model.ScopeRead, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireScopeMatch(t *testing.T) {
	claims := &service.Claims{ClientID: "c1", Scopes: []string{model.ScopeIngest, model.ScopeRead}}
	w := scopeProbe(t, model.ScopeRead, claims)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireScopeMissing(t *testing.T) {
	claims := &service.Claims{ClientID: "c1", Scopes: []string{model.ScopeRead}}
	w := scopeProbe(t, model.ScopeMonitor, claims)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireScopeAdminImpliesAll(t *testing.T) {
	claims := &service.Claims{ClientID: "c1", Scopes: []string{model.ScopeAdmin}}
	for _, scope := range model.KnownScopes {
		w := scopeProbe(t, scope, claims)
		assert.Equal(t, http.StatusNoContent, w.Code, "scope %s", scope)
	}
}

func TestGetClaimsWrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetClaims(c))

	c.Set(ContextKeyClaims, "not claims")
	assert.Nil(t, GetClaims(c))
}
