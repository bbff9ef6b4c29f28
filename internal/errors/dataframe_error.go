// Package errors provides the error types shared by the table, cleaning and
// preparation layers. Every failure carries the operation that raised it, the
// column involved when there is one, and a Kind that callers can match with
// errors.Is against the exported sentinels.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a failure independently of the operation that raised it.
type Kind int

const (
	KindUnknown Kind = iota
	KindColumnNotFound
	KindInvalidInput
	KindUnsupportedType
	KindValidation
	KindCardinality
	KindUnresolvedExpiry
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindColumnNotFound:
		return "column not found"
	case KindInvalidInput:
		return "invalid input"
	case KindUnsupportedType:
		return "unsupported type"
	case KindValidation:
		return "validation"
	case KindCardinality:
		return "cardinality"
	case KindUnresolvedExpiry:
		return "unresolved expiry"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// DataFrameError represents standardized errors across all table operations
type DataFrameError struct {
	Op      string // Operation name (e.g., "Merge", "CleanContract", "EncodeBinary")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Kind    Kind
	Cause   error // Underlying error cause
}

// Error implements the error interface
func (e *DataFrameError) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DataFrameError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is(). A target that only
// carries a Kind (the exported sentinels) matches any error of that kind.
func (e *DataFrameError) Is(target error) bool {
	df, ok := target.(*DataFrameError)
	if !ok {
		return false
	}
	if df.Op == "" && df.Column == "" && df.Message == "" {
		return df.Kind != KindUnknown && e.Kind == df.Kind
	}
	return e.Op == df.Op && e.Column == df.Column && e.Message == df.Message
}

// Sentinels for errors.Is matching by kind.
var (
	ErrColumnNotFound   = &DataFrameError{Kind: KindColumnNotFound}
	ErrInvalidInput     = &DataFrameError{Kind: KindInvalidInput}
	ErrUnsupportedType  = &DataFrameError{Kind: KindUnsupportedType}
	ErrValidation       = &DataFrameError{Kind: KindValidation}
	ErrCardinality      = &DataFrameError{Kind: KindCardinality}
	ErrUnresolvedExpiry = &DataFrameError{Kind: KindUnresolvedExpiry}
)

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
		Kind:    KindColumnNotFound,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: message,
		Kind:    KindInvalidInput,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, typeName string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Kind:    KindUnsupportedType,
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewCardinalityError reports a binary column whose distinct non-missing
// values are not exactly two.
func NewCardinalityError(op, column string, distinct []string) *DataFrameError {
	return &DataFrameError{
		Op:     op,
		Column: column,
		Message: fmt.Sprintf("expected exactly 2 distinct values, found %d [%s]",
			len(distinct), strings.Join(distinct, ", ")),
		Kind: KindCardinality,
	}
}

// NewUnresolvedExpiryError reports a contract whose missing end date cannot be
// resolved under the active month-to-month policy.
func NewUnresolvedExpiryError(op, customerID, reason string) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Column:  "end_date",
		Message: fmt.Sprintf("customer %s: %s", customerID, reason),
		Kind:    KindUnresolvedExpiry,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DataFrameError {
	return &DataFrameError{
		Op:      op,
		Message: "internal error occurred",
		Kind:    KindInternal,
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyDataFrame indicates operations on empty tables
	ErrEmptyDataFrame = &DataFrameError{
		Op:      "validation",
		Message: "operation not supported on empty DataFrame",
		Kind:    KindInvalidInput,
	}

	// ErrMismatchedLength indicates length mismatches in operations
	ErrMismatchedLength = &DataFrameError{
		Op:      "validation",
		Message: "arrays must have the same length",
		Kind:    KindInvalidInput,
	}
)
