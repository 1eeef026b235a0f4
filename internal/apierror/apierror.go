// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"bookpos/internal/apperror"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Code: apperror.KindValidation.String(), Fields: fields}
}

// FromError maps a domain error onto an HTTP status and a client-safe body.
// Storage failures and unknown errors collapse to a generic 500.
func FromError(err error) (int, any) {
	kind := apperror.KindOf(err)
	if kind == 0 {
		return http.StatusInternalServerError, New("internal server error")
	}
	if kind == apperror.KindStorage {
		return http.StatusInternalServerError, &APIError{Detail: "internal server error", Code: kind.String()}
	}

	var ae *apperror.Error
	errors.As(err, &ae)
	if kind == apperror.KindValidation && len(ae.Fields) > 0 {
		return http.StatusUnprocessableEntity, &ValidationError{Detail: ae.Message, Code: kind.String(), Fields: ae.Fields}
	}
	return statusFor(kind), &APIError{Detail: ae.Message, Code: kind.String()}
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindInvalidPricing, apperror.KindEmptyCart:
		return http.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindInsufficientStock, apperror.KindInvalidResult:
		return http.StatusConflict
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
