// Package testutil provides shared fixtures for tests: a small raw telecom
// dataset in the shape the pipeline ingests, helpers to turn it into tables
// or CSV files, and common table assertions.
package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/series"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked allocator and asserts on Release that
// every Arrow buffer allocated through it was freed.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// Raw fixture tables. The first record is the header, with the mixed-case
// names of the source system.
var (
	ContractRecords = [][]string{
		{"customerID", "BeginDate", "EndDate", "Type", "PaperlessBilling", "PaymentMethod", "MonthlyCharges", "TotalCharges"},
		{"C1", "2019-03-15", "No", "Month-to-month", "Yes", "Electronic check", "29.85", "29.85"},
		{"C2", "2018-01-10", "No", "Two year", "No", "Mailed check", "56.95", "1889.5"},
		{"C3", "2019-02-10", "No", "Month-to-month", "Yes", "Electronic check", "53.85", "108.15"},
		{"C4", "2017-06-01", "2019-10-01 00:00:00", "One year", "No", "Bank transfer (automatic)", "42.30", "1840.75"},
		{"C5", "2020-01-01", "No", "Month-to-month", "Yes", "Credit card (automatic)", "70.70", " "},
		{"C6", "2020-02-01", "No", "Two year", "No", "Mailed check", "20.00", " "},
	}

	PersonalRecords = [][]string{
		{"customerID", "gender", "SeniorCitizen", "Partner", "Dependents"},
		{"C1", "Female", "0", "Yes", "No"},
		{"C2", "Male", "0", "No", "No"},
		{"C3", "Male", "1", "No", "Yes"},
		{"C4", "Female", "0", "Yes", "Yes"},
		{"C5", "Male", "1", "Yes", "No"},
		{"C6", "Female", "0", "No", "No"},
	}

	InternetRecords = [][]string{
		{"customerID", "InternetService", "OnlineSecurity", "OnlineBackup", "DeviceProtection", "TechSupport", "StreamingTV", "StreamingMovies"},
		{"C1", "DSL", "No", "Yes", "No", "No", "No", "No"},
		{"C3", "DSL", "Yes", "Yes", "No", "No", "No", "No"},
		{"C4", "Fiber optic", "Yes", "No", "Yes", "Yes", "No", "Yes"},
		{"C5", "Fiber optic", "No", "No", "Yes", "No", "Yes", "Yes"},
	}

	PhoneRecords = [][]string{
		{"customerID", "MultipleLines"},
		{"C2", "No"},
		{"C3", "No"},
		{"C4", "Yes"},
		{"C6", "No"},
	}
)

// FixtureCustomers is the number of distinct customers across the fixtures.
const FixtureCustomers = 6

// FrameFromRecords builds a table of string columns from a header and rows,
// the way a raw CSV is read: empty cells become missing values.
func FrameFromRecords(allocator memory.Allocator, records [][]string) *dataframe.DataFrame {
	header := records[0]
	rows := records[1:]

	cols := make([]dataframe.ISeries, len(header))
	for c, name := range header {
		values := make([]string, len(rows))
		valid := make([]bool, len(rows))
		for r, row := range rows {
			values[r] = row[c]
			valid[r] = row[c] != ""
		}
		s, err := series.NewNullable(name, values, valid, allocator)
		if err != nil {
			panic(err)
		}
		cols[c] = s
	}
	return dataframe.New(cols...)
}

// RawFrames returns the contract, internet, personal and phone fixtures.
func RawFrames(allocator memory.Allocator) (contract, internet, personal, phone *dataframe.DataFrame) {
	return FrameFromRecords(allocator, ContractRecords),
		FrameFromRecords(allocator, InternetRecords),
		FrameFromRecords(allocator, PersonalRecords),
		FrameFromRecords(allocator, PhoneRecords)
}

// SyntheticContractRecords generates n contract rows cycling through every
// contract type and expiry rule, for exercising the parallel path.
func SyntheticContractRecords(n int) [][]string {
	records := [][]string{ContractRecords[0]}
	types := []string{"Month-to-month", "One year", "Two year"}
	months := []string{"01", "02", "05", "11"}
	for i := 0; i < n; i++ {
		typ := types[i%len(types)]
		month := months[i%len(months)]
		if typ == "Month-to-month" {
			month = months[i%2]
		}
		end := "No"
		if i%5 == 0 {
			end = "2019-12-01 00:00:00"
		}
		records = append(records, []string{
			fmt.Sprintf("S%05d", i),
			fmt.Sprintf("%d-%s-%02d", 2014+i%7, month, 1+i%28),
			end,
			typ,
			[]string{"Yes", "No"}[i%2],
			"Mailed check",
			"50.5",
			fmt.Sprintf("%d.25", i),
		})
	}
	return records
}

// WriteCSV writes records to dir/name and returns the path.
func WriteCSV(tb testing.TB, dir, name string, records [][]string) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(tb, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(tb, w.WriteAll(records))
	return path
}

// WriteRawCSVs writes the four fixtures as contract.csv, internet.csv,
// personal.csv and phone.csv under a fresh temporary directory.
func WriteRawCSVs(tb testing.TB) string {
	tb.Helper()

	dir := tb.TempDir()
	WriteCSV(tb, dir, "contract.csv", ContractRecords)
	WriteCSV(tb, dir, "internet.csv", InternetRecords)
	WriteCSV(tb, dir, "personal.csv", PersonalRecords)
	WriteCSV(tb, dir, "phone.csv", PhoneRecords)
	return dir
}

// AssertDataFrameHasColumns verifies that a table has exactly the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.ElementsMatch(t, expectedColumns, df.Columns(), "column sets should match")
}

// AssertNoMissing verifies that a table holds no missing values.
func AssertNoMissing(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()

	for name, n := range df.NullCounts() {
		assert.Zero(t, n, "column %s has %d missing values", name, n)
	}
}

// ColumnStrings returns a column rendered as text, one entry per row.
func ColumnStrings(t *testing.T, df *dataframe.DataFrame, name string) []string {
	t.Helper()

	col, ok := df.Column(name)
	require.True(t, ok, "column %s should exist", name)
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.GetAsString(i)
	}
	return out
}
