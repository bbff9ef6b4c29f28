package io

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/dataframe"
)

// Output formats accepted by WriteFile.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// ReadCSVFile reads the CSV file at path with default options.
func ReadCSVFile(ctx context.Context, path string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	df, err := NewCSVReader(f, DefaultCSVOptions(), mem).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// ReadParquetFile reads the Parquet file at path.
func ReadParquetFile(ctx context.Context, path string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return NewParquetReader(f, mem).Read(ctx)
}

// FormatFromPath infers the output format from a file extension, defaulting
// to CSV.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatCSV
	}
}

// WriteFile writes df to path in the given format; an empty format is
// inferred from the extension.
func WriteFile(path, format string, df *dataframe.DataFrame) error {
	if format == "" {
		format = FormatFromPath(path)
	}

	var writer func(f *os.File) DataWriter
	switch format {
	case FormatCSV:
		writer = func(f *os.File) DataWriter { return NewCSVWriter(f, DefaultCSVOptions()) }
	case FormatParquet:
		writer = func(f *os.File) DataWriter { return NewParquetWriter(f, DefaultParquetOptions()) }
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writer(f).Write(df); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
