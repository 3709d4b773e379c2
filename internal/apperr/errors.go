package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a business-rule violation carrying a stable HTTP status code.
// Infrastructure causes are wrapped so they can be logged at the boundary
// without leaking into the client-facing message.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation signals malformed input (400).
func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound signals a missing product or order (404).
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock signals that requested quantity exceeds available stock (409).
func InsufficientStock(name string, available, requested int) *Error {
	return &Error{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", name, available, requested),
	}
}

// AlreadyCanceled signals a repeat cancellation attempt (409).
func AlreadyCanceled(orderID string) *Error {
	return &Error{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("order %s is already canceled", orderID),
	}
}

// WindowClosed signals a cancellation outside the allowed window (403).
func WindowClosed(windowDays, daysUntil int) *Error {
	return &Error{
		Status: http.StatusForbidden,
		Message: fmt.Sprintf("order cannot be canceled: delivery date must be more than %d days away, current difference is %d days",
			windowDays, daysUntil),
	}
}

// Server wraps an infrastructure failure behind a generic 500. The cause is
// retained for logs only.
func Server(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "internal server error", cause: cause}
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}
