package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/validation"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Fields  []validation.FieldError
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, msg)
	}

	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, msg, strings.Join(parts, "; "))
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func IsNotFound(err error) bool        { return hasStatus(err, http.StatusNotFound) }
func IsUnauthorized(err error) bool    { return hasStatus(err, http.StatusUnauthorized) }
func IsForbidden(err error) bool       { return hasStatus(err, http.StatusForbidden) }
func IsConflict(err error) bool        { return hasStatus(err, http.StatusConflict) }
func IsValidationError(err error) bool { return hasStatus(err, http.StatusBadRequest) }
