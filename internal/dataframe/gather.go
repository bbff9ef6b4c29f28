package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
)

type valueReader[V any] interface {
	IsNull(i int) bool
	Value(i int) V
}

type valueAppender[V any] interface {
	Append(v V)
	AppendNull()
	NewArray() arrow.Array
	Release()
}

// gather copies src rows into b. Index -1 appends a null.
func gather[V any](src valueReader[V], b valueAppender[V], indices []int) arrow.Array {
	defer b.Release()
	for _, idx := range indices {
		if idx < 0 || src.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(src.Value(idx))
	}
	return b.NewArray()
}

// coalesce takes row i from primary[pi[i]] when that is present, falling back
// to secondary[si[i]].
func coalesce[V any](primary, secondary valueReader[V], b valueAppender[V], pi, si []int) arrow.Array {
	defer b.Release()
	for i := range pi {
		switch {
		case pi[i] >= 0 && !primary.IsNull(pi[i]):
			b.Append(primary.Value(pi[i]))
		case si[i] >= 0 && !secondary.IsNull(si[i]):
			b.Append(secondary.Value(si[i]))
		default:
			b.AppendNull()
		}
	}
	return b.NewArray()
}

func gatherColumn(col ISeries, name string, indices []int, mem memory.Allocator) (ISeries, error) {
	arr := col.Array()
	defer arr.Release()

	var out arrow.Array
	switch typed := arr.(type) {
	case *array.String:
		out = gather[string](typed, array.NewStringBuilder(mem), indices)
	case *array.Int64:
		out = gather[int64](typed, array.NewInt64Builder(mem), indices)
	case *array.Int32:
		out = gather[int32](typed, array.NewInt32Builder(mem), indices)
	case *array.Float64:
		out = gather[float64](typed, array.NewFloat64Builder(mem), indices)
	case *array.Boolean:
		out = gather[bool](typed, array.NewBooleanBuilder(mem), indices)
	case *array.Timestamp:
		out = gather[arrow.Timestamp](typed, array.NewTimestampBuilder(mem, series.TimestampType), indices)
	default:
		return nil, errors.NewUnsupportedTypeError("Take", arr.DataType().String())
	}
	return series.Wrap(name, out)
}

func coalesceColumns(name string, left, right ISeries, li, ri []int, mem memory.Allocator) (ISeries, error) {
	la := left.Array()
	defer la.Release()
	ra := right.Array()
	defer ra.Release()

	if !arrow.TypeEqual(la.DataType(), ra.DataType()) {
		return nil, errors.NewValidationError("Join", name,
			"key column types differ: "+la.DataType().String()+" vs "+ra.DataType().String())
	}

	var out arrow.Array
	switch typed := la.(type) {
	case *array.String:
		out = coalesce[string](typed, ra.(*array.String), array.NewStringBuilder(mem), li, ri)
	case *array.Int64:
		out = coalesce[int64](typed, ra.(*array.Int64), array.NewInt64Builder(mem), li, ri)
	case *array.Int32:
		out = coalesce[int32](typed, ra.(*array.Int32), array.NewInt32Builder(mem), li, ri)
	case *array.Float64:
		out = coalesce[float64](typed, ra.(*array.Float64), array.NewFloat64Builder(mem), li, ri)
	case *array.Boolean:
		out = coalesce[bool](typed, ra.(*array.Boolean), array.NewBooleanBuilder(mem), li, ri)
	default:
		return nil, errors.NewUnsupportedTypeError("Join", la.DataType().String())
	}
	return series.Wrap(name, out)
}
