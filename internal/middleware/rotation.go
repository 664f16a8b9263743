package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnpath/engage-backend/internal/response"
	"github.com/learnpath/engage-backend/internal/service"
)

// CheckKeyFreshness rejects tokens issued before the client's last API key
// rotation, so rotating a key immediately cuts off tokens minted with the old
// one.
func CheckKeyFreshness(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.CheckKeyFreshness(c.Request.Context(), claims); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Next()
	}
}
