package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"modelhub/internal/domain"
	"modelhub/internal/http/middleware"
)

// RespondError sends the standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
	case domain.IsNotFound(err):
		RespondError(c, http.StatusNotFound, err.Error(), nil)
	case domain.IsPermissionDenied(err), domain.IsSignInRequired(err):
		RespondError(c, http.StatusForbidden, err.Error(), nil)
	default:
		RespondError(c, http.StatusInternalServerError, "internal error", nil)
	}
}
