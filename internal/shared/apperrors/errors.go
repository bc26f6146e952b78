package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the cancellation/settlement domain. Services wrap
// these with fmt.Errorf("%w") so controllers can map them with errors.Is.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAuthorization       = errors.New("actor is not authorized for this resource")
	ErrAlreadyCancelled    = errors.New("resource is already cancelled")
	ErrAlreadyCheckedIn    = errors.New("pass has already been used for entry")
	ErrEventAlreadyStarted = errors.New("event has already started")
	ErrCrossBooking        = errors.New("passes belong to different bookings")
	ErrConflict            = errors.New("conflicting state transition")
	ErrValidation          = errors.New("validation failed")
)

// HTTPStatus maps a domain error to the HTTP status a controller should
// respond with. Unknown errors are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrAlreadyCheckedIn),
		errors.Is(err, ErrEventAlreadyStarted),
		errors.Is(err, ErrCrossBooking),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Authorizationf wraps ErrAuthorization with a formatted message.
func Authorizationf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrAuthorization)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}
