package io_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/io"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/testutil"
)

func featureFrame(t *testing.T, mem memory.Allocator) *dataframe.DataFrame {
	t.Helper()

	monthly, err := series.NewNullable("monthly_charges", []float64{29.85, 0, 42.3}, []bool{true, false, true}, mem)
	require.NoError(t, err)

	return dataframe.New(
		series.New("type", []string{"Month-to-month", "Two year", "One year"}, mem),
		series.New("active_days", []int64{31, 721, 852}, mem),
		series.New("is_active", []bool{true, true, false}, mem),
		monthly,
	)
}

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	ctx := context.Background()

	for _, codec := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(codec, func(t *testing.T) {
			df := featureFrame(t, mem)
			defer df.Release()

			var buf bytes.Buffer
			options := io.ParquetOptions{Compression: codec, BatchSize: 2}
			require.NoError(t, io.NewParquetWriter(&buf, options).Write(df))

			back, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), mem).Read(ctx)
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, df.Columns(), back.Columns())
			assert.Equal(t, df.Len(), back.Len())
			for _, name := range df.Columns() {
				assert.Equal(t, testutil.ColumnStrings(t, df, name), testutil.ColumnStrings(t, back, name), name)
			}
			assert.Equal(t, 1, back.NullCount())
		})
	}
}

func TestParquetReaderInvalidInput(t *testing.T) {
	_, err := io.NewParquetReader(bytes.NewReader([]byte("not parquet")), memory.NewGoAllocator()).Read(context.Background())
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := featureFrame(t, mem)
	defer df.Release()
	dir := t.TempDir()

	t.Run("parquet by extension", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "features.parquet")
		require.NoError(t, io.WriteFile(path, "", df))

		back, err := io.ReadParquetFile(context.Background(), path, mem)
		require.NoError(t, err)
		defer back.Release()
		assert.Equal(t, df.Len(), back.Len())
	})

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "features.csv")
		require.NoError(t, io.WriteFile(path, io.FormatCSV, df))

		back, err := io.ReadCSVFile(context.Background(), path, mem)
		require.NoError(t, err)
		defer back.Release()
		assert.Equal(t, []string{"31", "721", "852"}, testutil.ColumnStrings(t, back, "active_days"))
	})

	t.Run("unknown format", func(t *testing.T) {
		err := io.WriteFile(filepath.Join(dir, "features.json"), "json", df)
		assert.Error(t, err)
	})
}
