package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the client, the controllers and the HTTP surface.
const (
	CodeTransport          = "TRANSPORT_ERROR"
	CodeValidation         = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeBackendRejected    = "BACKEND_REJECTED"
	CodeTransitionRejected = "TRANSITION_REJECTED"
	CodeFetchFailed        = "FETCH_FAILED"
	CodeInFlight           = "IN_FLIGHT"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeInternal           = "INTERNAL_ERROR"
)

// DefaultTransportMessage is shown when the backend could not be reached.
const DefaultTransportMessage = "could not reach the server, please try again"

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
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

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusUnprocessableEntity, details)
}

// NewFieldError is a validation error attached to a single form field.
func NewFieldError(field, message string) error {
	return NewValidationError(message, map[string]any{"field": field})
}

func NewTransportError(err error) error {
	return &DomainError{
		Code:       CodeTransport,
		Message:    DefaultTransportMessage,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewBackendRejection wraps a non-2xx backend answer. The message is shown verbatim.
func NewBackendRejection(status int, message string) error {
	return &DomainError{
		Code:       CodeBackendRejected,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"backend_status": status},
	}
}

// NewFetchError marks a failed read. Auth failures keep their own code.
func NewFetchError(resource string, err error) error {
	if IsAuth(err) {
		return err
	}
	return &DomainError{
		Code:       CodeFetchFailed,
		Message:    fmt.Sprintf("failed to load %s", resource),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"reason": UserMessage(err, "")},
		Err:        err,
	}
}

// NewTransitionError marks a rejected status change. Auth failures keep their own code.
func NewTransitionError(message string, err error) error {
	if IsAuth(err) {
		return err
	}
	de := &DomainError{
		Code:       CodeTransitionRejected,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
	if err != nil {
		de.Details = map[string]any{"reason": UserMessage(err, "")}
	}
	return de
}

func NewInFlight(resource string) error {
	return NewDomainError(CodeInFlight, fmt.Sprintf("%s is already being updated", resource), http.StatusConflict, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
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
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func IsAuth(err error) bool       { return IsCode(err, CodeUnauthorized) }
func IsValidation(err error) bool { return IsCode(err, CodeValidation) }
func IsTransport(err error) bool  { return IsCode(err, CodeTransport) }

// UserMessage extracts the string to show to a user, falling back when none is available.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Message != "" {
			return domainErr.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
