package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/response"
)

// RequireScope checks that the client JWT carries the required scope. The
// admin scope implies every other scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.HasScope(scope) || claims.HasScope(model.ScopeAdmin) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrScopeRequired)
	}
}
