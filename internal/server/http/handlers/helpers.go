package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	pkgAuth "github.com/polkiloo/pizzeria/internal/pkg/auth"
	"github.com/polkiloo/pizzeria/internal/server/http/dto"
	"github.com/polkiloo/pizzeria/internal/server/http/middleware"
)

// CurrentActor returns the login of the authenticated staff member or an empty string.
func CurrentActor(c *gin.Context) string {
	if staff := middleware.CurrentStaff(c); staff != nil {
		return staff.Login
	}
	return ""
}

func parseOrderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "order id must be a positive integer")
		return 0, false
	}
	return id, true
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, dto.OK(data))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.Fail(message, dto.CodeValidation))
}

// writeError translates domain errors into the response envelope.
// Unclassified errors are attached to the context for the request logger.
func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	c.JSON(status, dto.Fail(message, code))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domainErrors.ErrValidation):
		return http.StatusBadRequest, dto.CodeValidation
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound, dto.CodeNotFound
	case domainErrors.IsBusinessRule(err):
		return http.StatusConflict, businessRuleCode(err)
	case errors.Is(err, domainErrors.ErrCatalogIntegrity):
		return http.StatusUnprocessableEntity, dto.CodeCatalogIntegrity
	case errors.Is(err, domainErrors.ErrInvalidCredentials), errors.Is(err, pkgAuth.ErrInvalidToken):
		return http.StatusUnauthorized, dto.CodeUnauthorized
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		return http.StatusConflict, dto.CodeConflict
	default:
		return http.StatusInternalServerError, dto.CodeInternal
	}
}

func businessRuleCode(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrCancelDelivered):
		return dto.CodeAlreadyDelivered
	case errors.Is(err, domainErrors.ErrAlreadyCanceled):
		return dto.CodeAlreadyCanceled
	case errors.Is(err, domainErrors.ErrStateConflict):
		return dto.CodeStateConflict
	default:
		return dto.CodeInvalidTransition
	}
}
