// Package validation provides reusable input checks for table operations:
// column existence, non-empty input, length agreement and the distinct value
// count of categorical columns.
package validation

import (
	"fmt"
	"sort"

	"github.com/paveg/churnprep/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// LengthValidator validates length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		return errors.NewInvalidInputError(v.op,
			fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual))
	}
	return nil
}

// EmptyValidator rejects tables without rows.
type EmptyValidator struct {
	df ColumnProvider
	op string
}

// NewEmptyValidator creates a validator for empty table checks
func NewEmptyValidator(df ColumnProvider, op string) *EmptyValidator {
	return &EmptyValidator{df: df, op: op}
}

// Validate checks if the table has at least one row
func (v *EmptyValidator) Validate() error {
	if v.df.Len() == 0 {
		return &errors.DataFrameError{
			Op:      v.op,
			Message: "operation not supported on empty DataFrame",
			Kind:    errors.KindInvalidInput,
		}
	}
	return nil
}

// CardinalityValidator checks that a column holds exactly the expected number
// of distinct non-missing values.
type CardinalityValidator struct {
	distinct map[string]struct{}
	expected int
	op       string
	column   string
}

// NewCardinalityValidator creates a validator over the distinct values seen
// in column.
func NewCardinalityValidator(op, column string, distinct map[string]struct{}, expected int) *CardinalityValidator {
	return &CardinalityValidator{
		distinct: distinct,
		expected: expected,
		op:       op,
		column:   column,
	}
}

// Validate checks the distinct count
func (v *CardinalityValidator) Validate() error {
	if len(v.distinct) == v.expected {
		return nil
	}
	return errors.NewCardinalityError(v.op, v.column, SortedKeys(v.distinct))
}

// SortedKeys returns the keys of set in ascending order.
func SortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateNotEmpty is a convenience function for empty table validation
func ValidateNotEmpty(df ColumnProvider, op string) error {
	return NewEmptyValidator(df, op).Validate()
}

// ValidateCardinality is a convenience function for cardinality validation
func ValidateCardinality(op, column string, distinct map[string]struct{}, expected int) error {
	return NewCardinalityValidator(op, column, distinct, expected).Validate()
}
