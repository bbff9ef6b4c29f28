// Package series provides typed, nullable columns backed by Apache Arrow arrays.
package series

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/errors"
)

// TimestampType is the Arrow type used for every time.Time column.
var TimestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// DateLayout is used when a timestamp is rendered as text.
const DateLayout = "2006-01-02 15:04:05"

// Any is the type-erased view shared by every Series[T].
type Any interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	NullN() int
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// Series represents a typed data column with Apache Arrow backend
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values. It panics on unsupported
// element types; use NewSafe when the type is not known statically.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a new Series, returning an error for unsupported types.
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series where valid[i] == false marks row i missing.
// A nil valid slice means every row is present.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if valid != nil && len(valid) != len(values) {
		return nil, errors.NewInvalidInputError("series creation",
			fmt.Sprintf("validity length %d does not match %d values", len(valid), len(values)))
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	arr, err := buildArray(values, valid, mem)
	if err != nil {
		return nil, err
	}
	return &Series[T]{name: name, array: arr}, nil
}

func buildArray(values any, valid []bool, mem memory.Allocator) (arrow.Array, error) {
	switch v := values.(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []time.Time:
		builder := array.NewTimestampBuilder(mem, TimestampType)
		defer builder.Release()
		for i, t := range v {
			if valid != nil && !valid[i] {
				builder.AppendNull()
				continue
			}
			builder.Append(arrow.Timestamp(t.UTC().UnixMicro()))
		}
		return builder.NewArray(), nil
	default:
		return nil, errors.NewUnsupportedTypeError("series creation", fmt.Sprintf("%T", values))
	}
}

// Wrap builds a type-erased series around an existing array. It takes over
// the caller's reference to arr.
func Wrap(name string, arr arrow.Array) (Any, error) {
	switch arr.(type) {
	case *array.String:
		return &Series[string]{name: name, array: arr}, nil
	case *array.Int64:
		return &Series[int64]{name: name, array: arr}, nil
	case *array.Int32:
		return &Series[int32]{name: name, array: arr}, nil
	case *array.Float64:
		return &Series[float64]{name: name, array: arr}, nil
	case *array.Boolean:
		return &Series[bool]{name: name, array: arr}, nil
	case *array.Timestamp:
		return &Series[time.Time]{name: name, array: arr}, nil
	default:
		return nil, errors.NewUnsupportedTypeError("series wrap", arr.DataType().String())
	}
}

// Rename returns a series sharing this one's data under another name.
func (s *Series[T]) Rename(name string) *Series[T] {
	s.array.Retain()
	return &Series[T]{name: name, array: s.array}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// NullN returns the number of missing values.
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// Values returns the data as a Go slice. Missing rows hold the zero value;
// check IsNull or Valid to tell them apart.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Valid reports which rows are present.
func (s *Series[T]) Valid() []bool {
	valid := make([]bool, s.array.Len())
	for i := range valid {
		valid[i] = s.array.IsValid(i)
	}
	return valid
}

// Value returns the value at the given index, or the zero value when the
// index is out of range or the row is missing.
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Int32:
		if v, ok := any(&result).(*int32); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	case *array.Timestamp:
		if v, ok := any(&result).(*time.Time); ok {
			*v = arr.Value(index).ToTime(arrow.Microsecond).UTC()
		}
	}

	return result
}

// GetAsString renders the value at index as text. Missing rows render as "".
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}

	switch arr := s.array.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(index)), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'g', -1, 64)
	case *array.Boolean:
		if arr.Value(index) {
			return "True"
		}
		return "False"
	case *array.Timestamp:
		return arr.Value(index).ToTime(arrow.Microsecond).UTC().Format(DateLayout)
	default:
		return arr.ValueStr(index)
	}
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len(),
		s.NullN())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
