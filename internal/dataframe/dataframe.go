// Package dataframe provides the in-memory table the churn pipeline passes
// between stages: ordered, named, Arrow-backed columns of equal length.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if _, dup := columns[name]; !dup {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns
func (df *DataFrame) Select(names ...string) *DataFrame {
	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if series, exists := df.columns[name]; exists {
			newColumns[name] = series
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{
		columns: newColumns,
		order:   newOrder,
	}
}

// Drop returns a new DataFrame without the specified columns. Names that do
// not exist are ignored.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool)
	for _, name := range names {
		dropSet[name] = true
	}

	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(df.order))

	for _, name := range df.order {
		if !dropSet[name] {
			newColumns[name] = df.columns[name]
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{
		columns: newColumns,
		order:   newOrder,
	}
}

// WithColumn returns a new DataFrame where s replaces the column of the same
// name in place, or is appended when no such column exists.
func (df *DataFrame) WithColumn(s ISeries) *DataFrame {
	newColumns := make(map[string]ISeries, len(df.columns)+1)
	for name, col := range df.columns {
		newColumns[name] = col
	}
	newOrder := append([]string(nil), df.order...)
	if _, exists := newColumns[s.Name()]; !exists {
		newOrder = append(newOrder, s.Name())
	}
	newColumns[s.Name()] = s

	return &DataFrame{
		columns: newColumns,
		order:   newOrder,
	}
}

// RenameWith renames every column through fn. Two columns mapping to the same
// name is an error.
func (df *DataFrame) RenameWith(fn func(string) string) (*DataFrame, error) {
	mapping := make(map[string]string, len(df.order))
	for _, name := range df.order {
		mapping[name] = fn(name)
	}
	return df.Rename(mapping)
}

// Rename renames the columns named in mapping, keeping column order.
func (df *DataFrame) Rename(mapping map[string]string) (*DataFrame, error) {
	result := make([]ISeries, 0, len(df.order))
	seen := make(map[string]string, len(df.order))

	for _, name := range df.order {
		col := df.columns[name]
		target, ok := mapping[name]
		if !ok {
			target = name
		}
		if prev, dup := seen[target]; dup {
			return nil, errors.NewValidationError("Rename", target,
				fmt.Sprintf("columns '%s' and '%s' both map to this name", prev, name))
		}
		seen[target] = name

		if target == name {
			result = append(result, col)
			continue
		}
		renamed, err := series.Wrap(target, col.Array())
		if err != nil {
			return nil, err
		}
		result = append(result, renamed)
	}

	return New(result...), nil
}

// Take gathers rows by position. A negative index produces a missing row.
func (df *DataFrame) Take(indices []int) (*DataFrame, error) {
	n := df.Len()
	for _, idx := range indices {
		if idx >= n {
			return nil, errors.NewInvalidInputError("Take",
				fmt.Sprintf("row index %d out of range for %d rows", idx, n))
		}
	}

	mem := memory.NewGoAllocator()
	result := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		col, err := gatherColumn(df.columns[name], name, indices, mem)
		if err != nil {
			return nil, err
		}
		result = append(result, col)
	}
	return New(result...), nil
}

// NullCounts returns the number of missing values per column.
func (df *DataFrame) NullCounts() map[string]int {
	counts := make(map[string]int, len(df.order))
	for _, name := range df.order {
		counts[name] = df.columns[name].NullN()
	}
	return counts
}

// NullCount returns the total number of missing values in the table.
func (df *DataFrame) NullCount() int {
	total := 0
	for _, name := range df.order {
		total += df.columns[name].NullN()
	}
	return total
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}
