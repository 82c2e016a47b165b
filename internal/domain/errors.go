package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries the HTTP status a failure should surface as. The
// wrapped cause is logged, never serialized.
type AppError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

func apiError(status int, msg string) *AppError {
	return &AppError{Status: status, Message: msg}
}

func ErrNotFound(msg string) *AppError     { return apiError(http.StatusNotFound, msg) }
func ErrUnauthorized(msg string) *AppError { return apiError(http.StatusUnauthorized, msg) }
func ErrBadRequest(msg string) *AppError   { return apiError(http.StatusBadRequest, msg) }
func ErrValidation(msg string) *AppError   { return apiError(http.StatusUnprocessableEntity, msg) }

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: msg, cause: cause}
}

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Sentinel errors for the entitlement resolver and the billing event
// processor, matched with errors.Is.

// ErrUserNotFound is returned when a permission check references a user
// that has no plan record.
var ErrUserNotFound = errors.New("user not found")

// ErrUnknownTier indicates configuration drift: a stored tier name no
// longer matches a known tier definition. Internal, never user-facing.
var ErrUnknownTier = errors.New("unknown subscription tier")

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification. The event must not be processed.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrMalformedPayload is returned when a verified webhook payload cannot
// be parsed.
var ErrMalformedPayload = errors.New("malformed webhook payload")
