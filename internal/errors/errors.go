// Package errors provides custom error types for the zakah calculator.
// Rate sources, fetchers and HTTP handlers all report failures as AppError
// values so callers can classify them with errors.Is without string matching.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies of a sentinel still match it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Upstream failures.
var (
	ErrTransportFailure = &AppError{Code: "TRANSPORT_FAILURE", Message: "Upstream request failed", StatusCode: http.StatusBadGateway}
	ErrDataFailure      = &AppError{Code: "DATA_FAILURE", Message: "Upstream returned unusable data", StatusCode: http.StatusBadGateway}
	ErrAllSourcesFailed = &AppError{Code: "ALL_SOURCES_FAILED", Message: "Unable to fetch gold price", StatusCode: http.StatusBadGateway}
)

// Rate errors.
var (
	ErrInvalidManualRates = &AppError{Code: "INVALID_MANUAL_RATES", Message: "Gold price must be a positive number", StatusCode: http.StatusBadRequest}
)

// General errors.
var (
	ErrInvalidInput    = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrTooManyRequests = &AppError{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later", StatusCode: http.StatusTooManyRequests}
	ErrInternalServer  = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
