package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := Unauthorized("token has been revoked")
	assert.Equal(t, "UNAUTHORIZED: token has been revoked: unauthorized", e.Error())

	bare := &AppError{Code: "X", Message: "y"}
	assert.Equal(t, "X: y", bare.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	e := Conflict("refresh already in progress")
	assert.True(t, errors.Is(e, ErrConflict))

	inner := errors.New("dial tcp: connection refused")
	wrapped := ServiceUnavailable("revocation store unreachable")
	wrapped.Err = inner
	assert.True(t, errors.Is(wrapped, inner))
}

func TestConstructors_StatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   string
	}{
		{"not found", NotFound("member", "42"), http.StatusNotFound, "NOT_FOUND"},
		{"already exists", AlreadyExists("member", "email", "a@b.c"), http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid input", InvalidInput("email is required"), http.StatusBadRequest, "INVALID_INPUT"},
		{"unauthorized", Unauthorized("bad credentials"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", Forbidden("nope"), http.StatusForbidden, "FORBIDDEN"},
		{"conflict", Conflict("busy"), http.StatusConflict, "CONFLICT"},
		{"unavailable", ServiceUnavailable("redis down"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrServiceUnavail))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))

	// Wrapped sentinels still map.
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("lookup: %w", ErrNotFound)))

	// AppError status wins over sentinel mapping.
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ServiceUnavailable("redis down")))
}
