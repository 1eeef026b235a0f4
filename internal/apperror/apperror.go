// Package apperror defines the typed failures returned by the catalog, checkout,
// ledger and report services. Handlers translate them into HTTP responses via
// the apierror package; nothing below the handler layer deals in status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide between prompting for a
// correction and aborting.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindInvalidPricing
	KindEmptyCart
	KindInvalidResult
	KindStorage
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidPricing:
		return "invalid_pricing"
	case KindEmptyCart:
		return "empty_cart"
	case KindInvalidResult:
		return "invalid_result"
	case KindStorage:
		return "storage"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is the single error type of the domain layer.
// Err is internal detail (driver errors and the like) and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is. They carry no message and match every error of their kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrInvalidPricing    = &Error{Kind: KindInvalidPricing}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart}
	ErrInvalidResult     = &Error{Kind: KindInvalidResult}
	ErrStorage           = &Error{Kind: KindStorage}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a ValidationError carrying per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Storage wraps a datastore failure. A nil err yields nil so repository code
// can write `return apperror.Storage("...", db.Error)`.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns the Kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}
