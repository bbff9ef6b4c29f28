package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
)

// FillNulls replaces every missing cell with the false image of its column
// type: false for booleans, 0 for numbers and stringFill for text. Timestamp
// columns have no false image, so a missing timestamp is an error.
func (df *DataFrame) FillNulls(stringFill string) (*DataFrame, error) {
	mem := memory.NewGoAllocator()
	result := make([]ISeries, 0, len(df.order))

	for _, name := range df.order {
		col := df.columns[name]
		if col.NullN() == 0 {
			result = append(result, col)
			continue
		}

		var filled ISeries
		switch typed := col.(type) {
		case *series.Series[bool]:
			filled = series.New(name, typed.Values(), mem)
		case *series.Series[int64]:
			filled = series.New(name, typed.Values(), mem)
		case *series.Series[int32]:
			filled = series.New(name, typed.Values(), mem)
		case *series.Series[float64]:
			filled = series.New(name, typed.Values(), mem)
		case *series.Series[string]:
			values := typed.Values()
			for i := range values {
				if typed.IsNull(i) {
					values[i] = stringFill
				}
			}
			filled = series.New(name, values, mem)
		default:
			return nil, errors.NewValidationError("FillNulls", name,
				"missing values in a "+col.DataType().String()+" column cannot be filled")
		}
		result = append(result, filled)
	}

	return New(result...), nil
}
