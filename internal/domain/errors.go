package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing request input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an empty result or a missing served file.
	ErrNotFound = errors.New("not found")

	// ErrStoreNotConfigured is reported by the persistence gateway when no
	// database connection parameters were provided.
	ErrStoreNotConfigured = errors.New("relational store not configured")
)

// Validationf wraps ErrValidation with a human readable message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a human readable message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the response status code. Anything outside the
// taxonomy is treated as an infrastructure failure.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage strips the sentinel prefix so response bodies read naturally.
func ClientMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrNotFound} {
		prefix := sentinel.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
