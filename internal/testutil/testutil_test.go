package testutil_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/churnprep/internal/testutil"
)

func TestFrameFromRecords(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	df := testutil.FrameFromRecords(mem.Allocator, [][]string{
		{"customerID", "Partner"},
		{"A", "Yes"},
		{"B", ""},
	})
	defer df.Release()

	assert.Equal(t, []string{"customerID", "Partner"}, df.Columns())
	assert.Equal(t, 2, df.Len())
	assert.Equal(t, 1, df.NullCount())
	assert.Equal(t, []string{"Yes", ""}, testutil.ColumnStrings(t, df, "Partner"))
}

func TestRawFrames(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	contract, internet, personal, phone := testutil.RawFrames(mem.Allocator)
	defer contract.Release()
	defer internet.Release()
	defer personal.Release()
	defer phone.Release()

	assert.Equal(t, testutil.FixtureCustomers, contract.Len())
	assert.Equal(t, testutil.FixtureCustomers, personal.Len())
	assert.Equal(t, 4, internet.Len())
	assert.Equal(t, 4, phone.Len())
	assert.True(t, contract.HasColumn("customerID"))
}

func TestSyntheticContractRecords(t *testing.T) {
	records := testutil.SyntheticContractRecords(50)

	require.Len(t, records, 51)
	assert.Equal(t, testutil.ContractRecords[0], records[0])
	for _, row := range records[1:] {
		assert.Len(t, row, len(records[0]))
	}
}

func TestWriteRawCSVs(t *testing.T) {
	dir := testutil.WriteRawCSVs(t)

	f, err := os.Open(filepath.Join(dir, "phone.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, testutil.PhoneRecords, records)
}
