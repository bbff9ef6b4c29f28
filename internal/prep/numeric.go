package prep

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
)

// Number is any element type that converts losslessly enough to float64 for
// modeling.
type Number interface {
	constraints.Integer | constraints.Float
}

func toFloat64[T Number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// NumericValues returns column as float64. Booleans map to 0 and 1, and text
// columns must hold numbers or booleans ("0", "1", "True", "False").
// Missing values are an error.
func NumericValues(df *dataframe.DataFrame, column string) ([]float64, error) {
	const op = "NumericValues"

	col, ok := df.Column(column)
	if !ok {
		return nil, errors.NewColumnNotFoundError(op, column)
	}
	if col.NullN() > 0 {
		return nil, errors.NewValidationError(op, column,
			fmt.Sprintf("%d missing values", col.NullN()))
	}

	switch s := col.(type) {
	case *series.Series[float64]:
		return s.Values(), nil
	case *series.Series[int64]:
		return toFloat64(s.Values()), nil
	case *series.Series[int32]:
		return toFloat64(s.Values()), nil
	case *series.Series[bool]:
		out := make([]float64, s.Len())
		for i, v := range s.Values() {
			if v {
				out[i] = 1
			}
		}
		return out, nil
	case *series.Series[string]:
		out := make([]float64, s.Len())
		for i, text := range s.Values() {
			v, err := parseNumeric(text)
			if err != nil {
				return nil, errors.NewValidationError(op, column,
					fmt.Sprintf("row %d: %q is not numeric", i, text))
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, errors.NewUnsupportedTypeError(op, col.DataType().String())
	}
}

func parseNumeric(text string) (float64, error) {
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return v, nil
	}
	b, err := strconv.ParseBool(text)
	if err != nil {
		return 0, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// ToMatrix converts every column of df to a row-major dense matrix, one
// matrix column per frame column in frame order.
func ToMatrix(df *dataframe.DataFrame) (*mat.Dense, error) {
	rows, cols := df.Len(), df.Width()
	if rows == 0 || cols == 0 {
		return nil, errors.NewInvalidInputError("ToMatrix",
			fmt.Sprintf("cannot build a %dx%d matrix", rows, cols))
	}

	m := mat.NewDense(rows, cols, nil)
	for j, name := range df.Columns() {
		values, err := NumericValues(df, name)
		if err != nil {
			return nil, err
		}
		m.SetCol(j, values)
	}
	return m, nil
}
