package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

// bindJSON decodes the request body into dst. A field of the wrong JSON
// type is reported as a validation failure on that field.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verr := &validation.Errors{}
		verr.Add(typeErr.Field, fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		apierrors.ValidationFailed(c, verr)
		return false
	}

	apierrors.BadRequest(c, "Invalid request body")
	return false
}

// respondValidationError writes err as a field list when it is one.
func respondValidationError(c *gin.Context, err error) bool {
	var verr *validation.Errors
	if errors.As(err, &verr) {
		apierrors.ValidationFailed(c, verr)
		return true
	}
	return false
}
