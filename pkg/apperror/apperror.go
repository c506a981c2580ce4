package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConflictOrServer = errors.New("conflict or server error")
	ErrNetwork          = errors.New("network failure")
	ErrBusy             = errors.New("operation in progress")
	ErrInternal         = errors.New("internal error")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Status    int
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewAuthRequired(details string) *AppError {
	return NewAppError(ErrAuthRequired, "Please log in to continue", details, nil)
}

func NewValidation(details string, err error) *AppError {
	return NewAppError(ErrValidation, "Invalid input provided", details, err)
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewConflictOrServer(status int, msg, details string) *AppError {
	e := NewAppError(ErrConflictOrServer, msg, details, nil)
	e.Status = status
	return e
}

func NewNetwork(details string, err error) *AppError {
	return NewAppError(ErrNetwork, "The server could not be reached", details, err)
}

func NewBusy(details string) *AppError {
	return NewAppError(ErrBusy, "Another submission is still in progress", details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal error occurred", details, err)
}

// FromHTTPStatus classifies a backend response. serverMessage is the message
// the backend put in its error body, if any; it wins over the generic text.
func FromHTTPStatus(status int, serverMessage string) *AppError {
	var e *AppError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e = NewAppError(ErrAuthRequired, "Access denied. Please check your login.", http.StatusText(status), nil)
	case status == http.StatusNotFound:
		e = NewAppError(ErrNotFound, "Resource not found", http.StatusText(status), nil)
	case status >= http.StatusInternalServerError:
		e = NewAppError(ErrConflictOrServer, "Server error. Please check the submitted data.", http.StatusText(status), nil)
	default:
		e = NewAppError(ErrConflictOrServer, "The request was rejected by the server", http.StatusText(status), nil)
	}
	e.Status = status
	if serverMessage != "" {
		e.Message = serverMessage
	}
	return e
}

// UserMessage is the text to show to a person for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Unknown error."
}

func ToHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrAuthRequired) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrBusy) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() map[string]any {
	return map[string]any{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
}
