package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for the subscription engine. They are wrapped by AppError so
// handlers get a status code while callers can still use errors.Is.
var (
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrInvalidTransition = errors.New("invalid order transition")
)

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error constructors.

func ErrNotFound(msg string) *AppError {
	return &AppError{Code: http.StatusNotFound, Message: msg}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: http.StatusForbidden, Message: msg}
}

func ErrBadRequest(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

func ErrInternal(msg string, err error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: msg, Err: err}
}

func invalidPlan(code string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: fmt.Sprintf("invalid plan %q", code), Err: ErrInvalidPlan}
}

func invalidTransition(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg, Err: ErrInvalidTransition}
}

// ErrNotPending reports a review attempt on an order that has already
// been reviewed.
func ErrNotPending(status OrderStatus) *AppError {
	return invalidTransition(fmt.Sprintf("order is already %s", status))
}

// AsAppError attempts to extract an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
