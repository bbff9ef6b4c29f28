package prep

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/validation"
)

// DummyName is the name of the indicator column for value of column.
func DummyName(column, value string) string {
	return column + "_" + value
}

// OneHotEncode replaces column with one boolean indicator per category seen
// in train, named column_<value> and appended in sorted category order. The
// same indicators are built for test; a test value unseen in train, or a
// missing value, sets no indicator.
func OneHotEncode(train, test *dataframe.DataFrame, column string) (*dataframe.DataFrame, *dataframe.DataFrame, []string, error) {
	const op = "OneHotEncode"

	for _, df := range []*dataframe.DataFrame{train, test} {
		if err := validation.ValidateColumns(df, op, column); err != nil {
			return nil, nil, nil, err
		}
	}

	categories := validation.SortedKeys(distinctValues(train, column))
	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = DummyName(column, category)
		if train.HasColumn(names[i]) {
			return nil, nil, nil, errors.NewValidationError(op, names[i], "indicator column already exists")
		}
	}

	encode := func(df *dataframe.DataFrame) *dataframe.DataFrame {
		col, _ := df.Column(column)
		out := df.Drop(column)
		mem := memory.NewGoAllocator()
		for i, category := range categories {
			values := make([]bool, df.Len())
			for row := range values {
				values[row] = !col.IsNull(row) && col.GetAsString(row) == category
			}
			out = out.WithColumn(series.New(names[i], values, mem))
		}
		return out
	}

	return encode(train), encode(test), names, nil
}

// LabelEncode replaces column in both frames with int64 codes: the index of
// the value among the sorted distinct train values. Missing values and test
// values unseen in train are errors.
func LabelEncode(train, test *dataframe.DataFrame, column string) (*dataframe.DataFrame, *dataframe.DataFrame, error) {
	const op = "LabelEncode"

	for _, df := range []*dataframe.DataFrame{train, test} {
		if err := validation.ValidateColumns(df, op, column); err != nil {
			return nil, nil, err
		}
	}

	classes := validation.SortedKeys(distinctValues(train, column))
	codes := make(map[string]int64, len(classes))
	for i, class := range classes {
		codes[class] = int64(i)
	}

	encode := func(df *dataframe.DataFrame, split string) (*dataframe.DataFrame, error) {
		col, _ := df.Column(column)
		values := make([]int64, df.Len())
		for row := range values {
			if col.IsNull(row) {
				return nil, errors.NewValidationError(op, column,
					fmt.Sprintf("%s row %d is missing", split, row))
			}
			code, ok := codes[col.GetAsString(row)]
			if !ok {
				return nil, errors.NewValidationError(op, column,
					fmt.Sprintf("%s row %d: unseen label %q", split, row, col.GetAsString(row)))
			}
			values[row] = code
		}
		return df.WithColumn(series.New(column, values, memory.NewGoAllocator())), nil
	}

	trainOut, err := encode(train, "train")
	if err != nil {
		return nil, nil, err
	}
	testOut, err := encode(test, "test")
	if err != nil {
		return nil, nil, err
	}
	return trainOut, testOut, nil
}

func distinctValues(df *dataframe.DataFrame, column string) map[string]struct{} {
	col, _ := df.Column(column)
	set := make(map[string]struct{})
	for row := 0; row < col.Len(); row++ {
		if !col.IsNull(row) {
			set[col.GetAsString(row)] = struct{}{}
		}
	}
	return set
}
