package prep

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"gonum.org/v1/gonum/floats"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
)

// Range is the train minimum and maximum of one scaled column.
type Range struct {
	Min float64
	Max float64
}

// Apply maps v onto [0, 1] relative to the range. A constant column maps to 0.
func (r Range) Apply(v float64) float64 {
	span := r.Max - r.Min
	if span == 0 {
		return 0
	}
	return (v - r.Min) / span
}

// MinMaxScale fits a Range per column on train and rewrites the columns of
// both frames as float64 scaled values. Test values outside the train range
// fall outside [0, 1].
func MinMaxScale(train, test *dataframe.DataFrame, columns []string) (*dataframe.DataFrame, *dataframe.DataFrame, map[string]Range, error) {
	const op = "MinMaxScale"

	if train.Len() == 0 {
		return nil, nil, nil, errors.NewInvalidInputError(op, "cannot fit on an empty train set")
	}

	ranges := make(map[string]Range, len(columns))
	mem := memory.NewGoAllocator()

	for _, name := range columns {
		trainValues, err := NumericValues(train, name)
		if err != nil {
			return nil, nil, nil, err
		}
		testValues, err := NumericValues(test, name)
		if err != nil {
			return nil, nil, nil, err
		}

		r := Range{Min: floats.Min(trainValues), Max: floats.Max(trainValues)}
		ranges[name] = r

		train = train.WithColumn(series.New(name, scaleAll(trainValues, r), mem))
		test = test.WithColumn(series.New(name, scaleAll(testValues, r), mem))
	}
	return train, test, ranges, nil
}

func scaleAll(values []float64, r Range) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = r.Apply(v)
	}
	return out
}
