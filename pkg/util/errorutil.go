package util

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	Messages   []string
	HTTPStatus int
	Err        error
	// RetryAfter tells throttled clients when to come back.
	RetryAfter time.Duration
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body returns the client-facing message: the aggregated list when present,
// the single message otherwise.
func (e *DomainError) Body() any {
	if len(e.Messages) > 0 {
		return e.Messages
	}
	return e.Message
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, zero when unset.
func (e *DomainError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidationError reports every violated field rule at once.
func NewValidationError(messages []string) error {
	return &DomainError{
		Code:       "VALIDATION_FAILED",
		Message:    "validation failed",
		Messages:   messages,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewBadRequest(message string) error {
	return NewDomainError("BAD_REQUEST", message, http.StatusBadRequest)
}

func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized)
}

func NewTooManyRequests(message string, retryAfter time.Duration) error {
	de := NewDomainError("RATE_LIMITED", message, http.StatusTooManyRequests)
	de.RetryAfter = retryAfter
	return de
}

// NewInternalError hides err from clients behind message.
func NewInternalError(message string, err error) error {
	if message == "" {
		message = "Internal Server Error"
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	de, _ := NewInternalError("", err).(*DomainError)
	return de
}
