package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pizzeria/internal/domain/model"
	pkgAuth "github.com/polkiloo/pizzeria/internal/pkg/auth"
	"github.com/polkiloo/pizzeria/internal/server/http/dto"
)

const (
	// StaffContextKey is a gin context key for the authenticated staff member.
	StaffContextKey = "staff"
	authCookieName  = "pizzeria_token"
)

// StaffIdentifier resolves auth tokens to staff members.
type StaffIdentifier interface {
	Identify(ctx context.Context, token string) (*model.User, error)
}

// AuthRequired ensures a staff member is authenticated before accessing handler.
func AuthRequired(identifier StaffIdentifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("authentication required", dto.CodeUnauthorized))
			return
		}
		if !identify(c, identifier, token) {
			return
		}
		c.Next()
	}
}

// AuthOptional attaches the staff member when a token is supplied and lets anonymous requests through.
func AuthOptional(identifier StaffIdentifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" && !identify(c, identifier, token) {
			return
		}
		c.Next()
	}
}

func identify(c *gin.Context, identifier StaffIdentifier, token string) bool {
	user, err := identifier.Identify(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("invalid auth token", dto.CodeUnauthorized))
			return false
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail("internal error", dto.CodeInternal))
		return false
	}
	c.Set(StaffContextKey, user)
	return true
}

// CurrentStaff returns the authenticated staff member or nil.
func CurrentStaff(c *gin.Context) *model.User {
	val, ok := c.Get(StaffContextKey)
	if !ok {
		return nil
	}
	user, _ := val.(*model.User)
	return user
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}
