package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/response"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/learnpath/engage-backend/internal/validator"
)

// AuthHandler handles the credential exchange endpoint.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// IssueToken godoc
// POST /v1/auth/token
// Exchanges a client_id + api_key pair for a scoped bearer token.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req model.TokenRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.IssueToken(c.Request.Context(), req.ClientID, req.APIKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}
