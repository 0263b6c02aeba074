package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/dto"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

// Default messages
const (
	MsgUnauthorized       = "Authentication required"
	MsgForbidden          = "Access denied"
	MsgNotFound           = "Resource not found"
	MsgBadRequest         = "Invalid request"
	MsgValidationFailed   = "Validation failed"
	MsgConflict           = "Resource conflict"
	MsgInternalError      = "Internal server error"
	MsgServiceUnavailable = "Service temporarily unavailable"
)

// RespondWithError aborts the request with an error envelope.
func RespondWithError(c *gin.Context, statusCode int, message string, fields []validation.FieldError) {
	c.AbortWithStatusJSON(statusCode, dto.Failure(message, fields))
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, orDefault(message, MsgUnauthorized), nil)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, orDefault(message, MsgForbidden), nil)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, orDefault(message, MsgNotFound), nil)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, orDefault(message, MsgBadRequest), nil)
}

// ValidationFailed sends a 400 response listing every invalid field
func ValidationFailed(c *gin.Context, verr *validation.Errors) {
	RespondWithError(c, http.StatusBadRequest, MsgValidationFailed, verr.Fields)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, orDefault(message, MsgConflict), nil)
}

// InternalError logs err with the request logger and sends a generic 500 response
func InternalError(c *gin.Context, err error) {
	logger := zerolog.Nop()
	if c.Request != nil {
		logger = *zerolog.Ctx(c.Request.Context())
	}
	logger.Error().
		Err(err).
		Str("path", c.FullPath()).
		Msg("request failed")

	RespondWithError(c, http.StatusInternalServerError, MsgInternalError, nil)
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusServiceUnavailable, orDefault(message, MsgServiceUnavailable), nil)
}
