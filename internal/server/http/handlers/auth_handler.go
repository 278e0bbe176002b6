package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/server/http/dto"
	"github.com/polkiloo/pizzeria/internal/server/http/middleware"
)

// AuthHandler processes staff registration and login.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/staff/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	token, err := h.facade.Register(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidCredentials) {
			badRequest(c, "login and a password of up to 72 bytes are required")
			return
		}
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	respond(c, http.StatusOK, dto.TokenResponse{Token: token})
}

// Login handles POST /api/staff/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	token, err := h.facade.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	respond(c, http.StatusOK, dto.TokenResponse{Token: token})
}
