// internal/model/error.go
package model

import (
	"errors"
	"fmt"
)

// Application error taxonomy. Storage-layer failures (ErrBackendUnavailable) are
// swallowed at the cache/ledger boundary; the rest propagate to callers.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternalServer     = errors.New("internal server error")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource conflict")
	ErrConfiguration      = errors.New("configuration error")
	ErrGenerationFailed   = errors.New("exercise generation failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// AppError carries a client-facing code and message while keeping the
// underlying sentinel reachable through errors.Is.
type AppError struct {
	Detail ErrorDetail
	Err    error
}

// ErrorDetail is the JSON body of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse wraps ErrorDetail under an "error" key.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		Err:    err,
	}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Detail.Code, e.Detail.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
