// Package apperr defines the closed set of failures the application reports to callers.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindValidation        Kind = "validation"
	KindEmptyCart         Kind = "empty_cart"
	KindInsufficientStock Kind = "insufficient_stock"
	KindPaymentSession    Kind = "payment_session"
	KindInvalidState      Kind = "invalid_state"
	KindNotFound          Kind = "not_found"
	KindPersistence       Kind = "persistence"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
)

// Error is implemented by every variant in this package.
type Error interface {
	error
	Kind() Kind
}

// KindOf reports the kind of the first Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Kind() Kind { return KindValidation }

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validation builds a ValidationError for a single field.
func Validation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Fields accumulates field errors and returns nil when none were added.
type Fields map[string]string

func (f Fields) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(f)}
}

type EmptyCartError struct{}

func (e *EmptyCartError) Kind() Kind    { return KindEmptyCart }
func (e *EmptyCartError) Error() string { return "cart is empty" }

type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Kind() Kind { return KindInsufficientStock }

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Only %d available", e.ProductName, e.Available)
}

// PaymentSessionError means the hosted checkout session could not be created or queried.
type PaymentSessionError struct {
	Reason string
	Err    error
}

func (e *PaymentSessionError) Kind() Kind { return KindPaymentSession }

func (e *PaymentSessionError) Error() string {
	if e.Err != nil {
		return "payment session: " + e.Reason + ": " + e.Err.Error()
	}
	return "payment session: " + e.Reason
}

func (e *PaymentSessionError) Unwrap() error { return e.Err }

type InvalidStateError struct {
	Resource string
	From     string
	Action   string
}

func (e *InvalidStateError) Kind() Kind { return KindInvalidState }

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s in state %q cannot %s", e.Resource, e.From, e.Action)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// PersistenceError wraps a storage failure that has no domain meaning.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Kind() Kind { return KindPersistence }

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return "persistence: " + e.Op
	}
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConflictError reports a uniqueness violation on Field.
type ConflictError struct {
	Resource string
	Field    string
}

func (e *ConflictError) Kind() Kind { return KindConflict }

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with this %s already exists", e.Resource, e.Field)
}

type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Kind() Kind { return KindUnauthorized }

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return e.Reason
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Kind() Kind { return KindForbidden }

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}
