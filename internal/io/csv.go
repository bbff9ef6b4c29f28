package io

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/series"
)

// Read reads CSV data and returns a DataFrame of text columns.
func (r *CSVReader) Read(ctx context.Context) (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return recordsToFrame(records, r.options.Header, r.mem)
}

// recordsToFrame builds text columns from rows of cells. Empty cells and
// cells missing from short rows are missing values.
func recordsToFrame(records [][]string, header bool, mem memory.Allocator) (*dataframe.DataFrame, error) {
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	dataRows := records
	if header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
	}

	seriesList := make([]dataframe.ISeries, 0, len(headers))
	for i, name := range headers {
		values := make([]string, len(dataRows))
		valid := make([]bool, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) && row[i] != "" {
				values[j] = row[i]
				valid[j] = true
			}
		}

		s, err := series.NewNullable(name, values, valid, mem)
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", name, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// Write writes the DataFrame to CSV format. Missing values are written as
// empty cells and booleans as True/False.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	columns := make([]dataframe.ISeries, 0, df.Width())
	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		columns = append(columns, col)
	}

	row := make([]string, len(columns))
	for i := 0; i < df.Len(); i++ {
		for j, col := range columns {
			row[j] = col.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
