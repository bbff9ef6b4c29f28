package io

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/xuri/excelize/v2"

	"github.com/paveg/churnprep/internal/dataframe"
)

// ExcelReader reads one worksheet of a workbook as a table of text columns.
// The first row holds the column names.
type ExcelReader struct {
	path  string
	sheet string
	mem   memory.Allocator
}

// NewExcelReader creates a reader for sheet in the workbook at path.
func NewExcelReader(path, sheet string, mem memory.Allocator) *ExcelReader {
	return &ExcelReader{path: path, sheet: sheet, mem: mem}
}

// Read reads the worksheet.
func (r *ExcelReader) Read(ctx context.Context) (*dataframe.DataFrame, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", r.path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(r.sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s has no sheet %q (sheets: %v)", r.path, r.sheet, f.GetSheetList())
	}

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", r.sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return recordsToFrame(rows, true, r.mem)
}
