package churn

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/validation"
)

// BinaryColumn names a two-valued categorical column to encode. Rename, when
// set, replaces the column name after encoding.
type BinaryColumn struct {
	Name   string
	Rename string
}

// Binary is shorthand for a BinaryColumn that keeps its name.
func Binary(names ...string) []BinaryColumn {
	cols := make([]BinaryColumn, len(names))
	for i, name := range names {
		cols[i] = BinaryColumn{Name: name}
	}
	return cols
}

// EncodeBinary replaces each listed column with a boolean column that is true
// where the value equals the lexically second of its two categories. The
// column keeps its position. Missing values stay missing. A column without
// exactly two distinct observed values is a cardinality error.
func EncodeBinary(df *dataframe.DataFrame, op string, columns ...BinaryColumn) (*dataframe.DataFrame, error) {
	mem := memory.NewGoAllocator()
	renames := make(map[string]string)

	for _, bc := range columns {
		col, ok := df.Column(bc.Name)
		if !ok {
			return nil, errors.NewColumnNotFoundError(op, bc.Name)
		}

		distinct := make(map[string]struct{}, 2)
		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) {
				distinct[col.GetAsString(i)] = struct{}{}
			}
		}
		if err := validation.ValidateCardinality(op, bc.Name, distinct, 2); err != nil {
			return nil, err
		}
		truthy := validation.SortedKeys(distinct)[1]

		values := make([]bool, col.Len())
		valid := make([]bool, col.Len())
		for i := range values {
			if col.IsNull(i) {
				continue
			}
			valid[i] = true
			values[i] = col.GetAsString(i) == truthy
		}

		encoded, err := series.NewNullable(bc.Name, values, valid, mem)
		if err != nil {
			return nil, err
		}
		df = df.WithColumn(encoded)
		if bc.Rename != "" && bc.Rename != bc.Name {
			renames[bc.Name] = bc.Rename
		}
	}

	if len(renames) == 0 {
		return df, nil
	}
	return df.Rename(renames)
}
