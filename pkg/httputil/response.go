package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/pagination"
)

// Response wraps all API responses
type Response struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Data       interface{}      `json:"data,omitempty"`
	Pagination *pagination.Meta `json:"pagination,omitempty"`
	Error      interface{}      `json:"error,omitempty"`
}

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondWithSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondWithPagination sends a list page together with its pagination block
func RespondWithPagination(c *gin.Context, data interface{}, meta pagination.Meta) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Pagination: &meta,
	})
}

// RespondWithError renders err. Non-application errors are logged and hidden.
func RespondWithError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		err = apperrors.Validation("validation failed", fieldErrors(verrs))
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("unexpected error")
		appErr = apperrors.Internal(err)
	} else if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Error().
			Err(appErr).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(appErr.StatusCode(), Response{
		Success: false,
		Message: appErr.Message,
		Error:   appErr.Details,
	})
}

// RespondWithBindError renders a request binding failure as a 400.
func RespondWithBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		RespondWithError(c, err)
		return
	}
	RespondWithError(c, apperrors.BadRequest("invalid request body", err))
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"oneof":    "has an unsupported value",
	"min":      "is too small",
	"max":      "is too large",
	"gte":      "is too small",
	"lte":      "is too large",
	"len":      "has the wrong length",
	"numeric":  "must be numeric",
	"phone":    "must be a 10 digit phone number",
	"uuid":     "must be a valid id",
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
