package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("doctor", nil), http.StatusNotFound},
		{BadRequest("bad", nil), http.StatusBadRequest},
		{Validation("invalid", map[string]string{"phone": "required"}), http.StatusBadRequest},
		{Unauthorized("", nil), http.StatusUnauthorized},
		{Forbidden(""), http.StatusForbidden},
		{Conflict("taken", nil), http.StatusConflict},
		{Delivery("failed to send OTP", nil), http.StatusInternalServerError},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestAsUnwrapsChain(t *testing.T) {
	cause := errors.New("db down")
	wrapped := fmt.Errorf("list appointments: %w", Internal(cause))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrInternal, appErr.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, HasCode(wrapped, ErrInternal))
	assert.False(t, HasCode(cause, ErrInternal))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "appointment not found", NotFound("appointment", nil).Error())
	assert.Equal(t, "unauthorized", Unauthorized("", nil).Error())
	assert.Equal(t, "slot taken: dup", Conflict("slot taken", errors.New("dup")).Error())
}
