package churn

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/testutil"
)

func normalized(t *testing.T, records [][]string) *dataframe.DataFrame {
	t.Helper()
	df, err := NormalizeColumns(testutil.FrameFromRecords(memory.NewGoAllocator(), records))
	require.NoError(t, err)
	return df
}

func oneMonth() ContractOptions {
	return ContractOptions{Resolver: NewResolver(0, PolicyOneMonth)}
}

func TestNormalizeColumns(t *testing.T) {
	df := normalized(t, testutil.InternetRecords)

	assert.Equal(t, []string{
		ColCustomerID, ColInternetService, ColOnlineSecurity, ColOnlineBackup,
		ColDeviceProtection, ColTechSupport, ColStreamingTV, ColStreamingMovies,
	}, df.Columns())
	assert.Equal(t, 4, df.Len())

	t.Run("idempotent", func(t *testing.T) {
		again, err := NormalizeColumns(df)
		require.NoError(t, err)
		assert.Equal(t, df.Columns(), again.Columns())
	})

	t.Run("collision", func(t *testing.T) {
		raw := testutil.FrameFromRecords(memory.NewGoAllocator(), [][]string{
			{"customerID", "customer_id"},
			{"A", "B"},
		})
		_, err := NormalizeColumns(raw)
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestEncodeBinary(t *testing.T) {
	mem := memory.NewGoAllocator()
	values := []string{"Yes", "No", "", "Yes"}
	valid := []bool{true, true, false, true}
	col, err := series.NewNullable("partner", values, valid, mem)
	require.NoError(t, err)
	df := dataframe.New(series.New("id", []string{"a", "b", "c", "d"}, mem), col)

	t.Run("second category is true", func(t *testing.T) {
		out, err := EncodeBinary(df, "test", Binary("partner")...)
		require.NoError(t, err)

		assert.Equal(t, []string{"id", "partner"}, out.Columns())
		assert.Equal(t, []string{"True", "False", "", "True"}, testutil.ColumnStrings(t, out, "partner"))

		encoded, _ := out.Column("partner")
		assert.Equal(t, 1, encoded.NullN())
	})

	t.Run("rename", func(t *testing.T) {
		out, err := EncodeBinary(df, "test", BinaryColumn{Name: "partner", Rename: "has_partner"})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "has_partner"}, out.Columns())
	})

	t.Run("single category", func(t *testing.T) {
		single := dataframe.New(series.New("flag", []string{"Yes", "Yes"}, mem))
		_, err := EncodeBinary(single, "test", Binary("flag")...)
		assert.ErrorIs(t, err, errors.ErrCardinality)
	})

	t.Run("three categories", func(t *testing.T) {
		triple := dataframe.New(series.New("flag", []string{"Yes", "No", "Maybe"}, mem))
		_, err := EncodeBinary(triple, "test", Binary("flag")...)
		require.ErrorIs(t, err, errors.ErrCardinality)
		assert.Contains(t, err.Error(), "[Maybe, No, Yes]")
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := EncodeBinary(df, "test", Binary("gender")...)
		assert.ErrorIs(t, err, errors.ErrColumnNotFound)
	})
}

func TestCleanPersonal(t *testing.T) {
	out, report, err := CleanPersonal(normalized(t, testutil.PersonalRecords))
	require.NoError(t, err)

	assert.Equal(t, []string{ColCustomerID, ColIsMale, ColSeniorCitizen, ColPartner, ColDependents}, out.Columns())
	assert.Equal(t, []string{"False", "True", "True", "False", "True", "False"}, testutil.ColumnStrings(t, out, ColIsMale))
	assert.Equal(t, []string{"True", "False", "False", "True", "True", "False"}, testutil.ColumnStrings(t, out, ColPartner))
	assert.Equal(t, TablePersonal, report.Table)
	assert.Equal(t, 6, report.Rows)
	assert.Equal(t, []string{ColGender, ColPartner, ColDependents}, report.Encoded)

	senior, ok := out.Column(ColSeniorCitizen)
	require.True(t, ok)
	assert.IsType(t, &series.Series[int64]{}, senior)
	assert.Equal(t, []string{"0", "0", "1", "0", "1", "0"}, testutil.ColumnStrings(t, out, ColSeniorCitizen))
	assert.Zero(t, report.Coerced[ColSeniorCitizen])

	t.Run("malformed senior flag becomes missing", func(t *testing.T) {
		out, report, err := CleanPersonal(normalized(t, [][]string{testutil.PersonalRecords[0],
			{"P1", "Male", "yes", "No", "No"},
			{"P2", "Female", "1", "Yes", "Yes"},
		}))
		require.NoError(t, err)
		senior, _ := out.Column(ColSeniorCitizen)
		assert.True(t, senior.IsNull(0))
		assert.Equal(t, "1", senior.GetAsString(1))
		assert.Equal(t, 1, report.Coerced[ColSeniorCitizen])
	})
}

func TestCleanInternet(t *testing.T) {
	out, report, err := CleanInternet(normalized(t, testutil.InternetRecords))
	require.NoError(t, err)

	assert.True(t, out.HasColumn(ColIsFiberOptic))
	assert.False(t, out.HasColumn(ColInternetService))
	assert.Equal(t, []string{"False", "False", "True", "True"}, testutil.ColumnStrings(t, out, ColIsFiberOptic))
	assert.Equal(t, []string{"False", "True", "True", "False"}, testutil.ColumnStrings(t, out, ColOnlineSecurity))
	assert.Len(t, report.Encoded, 7)
}

func TestCleanPhone(t *testing.T) {
	out, _, err := CleanPhone(normalized(t, testutil.PhoneRecords))
	require.NoError(t, err)
	assert.Equal(t, []string{"False", "False", "True", "False"}, testutil.ColumnStrings(t, out, ColMultipleLines))

	_, _, err = CleanPhone(normalized(t, testutil.InternetRecords))
	assert.ErrorIs(t, err, errors.ErrColumnNotFound)
}

func TestCleanContract(t *testing.T) {
	out, report, err := CleanContract(context.Background(), normalized(t, testutil.ContractRecords), oneMonth())
	require.NoError(t, err)

	assert.Equal(t, []string{
		ColCustomerID, ColType, ColPaperlessBilling, ColPaymentMethod, ColMonthlyCharges, ColTotalCharges,
		ColBeginMonth, ColBeginYear, ColEndMonth, ColEndYear, ColIsActive, ColActiveDays,
	}, out.Columns())
	assert.Equal(t, 6, out.Len())

	assert.Equal(t, []string{"31", "721", "28", "852", "0", "0"}, testutil.ColumnStrings(t, out, ColActiveDays))
	assert.Equal(t, []string{"4", "1", "3", "10", "2", "2"}, testutil.ColumnStrings(t, out, ColEndMonth))
	assert.Equal(t, []string{"2019", "2021", "2019", "2019", "2020", "2022"}, testutil.ColumnStrings(t, out, ColEndYear))
	assert.Equal(t, []string{"3", "1", "2", "6", "1", "2"}, testutil.ColumnStrings(t, out, ColBeginMonth))
	assert.Equal(t, []string{"True", "True", "True", "False", "True", "True"}, testutil.ColumnStrings(t, out, ColIsActive))
	assert.Equal(t, []string{"True", "False", "True", "False", "True", "False"}, testutil.ColumnStrings(t, out, ColPaperlessBilling))
	assert.Equal(t, []string{"29.85", "1889.5", "108.15", "1840.75", "0", "0"}, testutil.ColumnStrings(t, out, ColTotalCharges))

	assert.Equal(t, 2, report.Coerced[ColTotalCharges])
	assert.Zero(t, report.Coerced[ColEndDate])
	assert.Equal(t, map[ExpiryRule]int{
		RuleObserved:          1,
		RuleOneMonth:          1,
		RuleReferenceYear:     1,
		RuleFebruaryPlusMonth: 1,
		RuleJanuaryFixed:      1,
		RuleSameYear:          1,
	}, report.Resolved)
	assert.Contains(t, report.Encoded, ColPaperlessBilling)
}

func TestCleanContractStrictPolicy(t *testing.T) {
	_, _, err := CleanContract(context.Background(), normalized(t, testutil.ContractRecords), ContractOptions{})
	require.ErrorIs(t, err, errors.ErrUnresolvedExpiry)
	assert.Contains(t, err.Error(), "C1")
}

func TestCleanContractInvalidRows(t *testing.T) {
	header := testutil.ContractRecords[0]

	t.Run("unknown type", func(t *testing.T) {
		df := normalized(t, [][]string{header,
			{"X1", "2019-01-01", "No", "Lifetime", "Yes", "Mailed check", "1", "1"},
		})
		_, _, err := CleanContract(context.Background(), df, oneMonth())
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("missing column", func(t *testing.T) {
		df := normalized(t, testutil.PhoneRecords)
		_, _, err := CleanContract(context.Background(), df, oneMonth())
		assert.ErrorIs(t, err, errors.ErrColumnNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := CleanContract(ctx, normalized(t, testutil.ContractRecords), oneMonth())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCleanContractLenientDates(t *testing.T) {
	df := normalized(t, [][]string{testutil.ContractRecords[0],
		{"B1", "", "No", "Two year", "Yes", "Mailed check", "10", "10"},
		{"B2", "someday", "2019-10-01", "One year", "No", "Mailed check", "10", "120"},
		{"E1", "2019-03-15", "2019/10/01", "Month-to-month", "Yes", "Electronic check", "29.85", "29.85"},
	})

	out, report, err := CleanContract(context.Background(), df, oneMonth())
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	// rows without a begin date keep their observed end and nothing else
	assert.Equal(t, []string{"", "", "3"}, testutil.ColumnStrings(t, out, ColBeginMonth))
	assert.Equal(t, []string{"", "", "2019"}, testutil.ColumnStrings(t, out, ColBeginYear))
	assert.Equal(t, []string{"", "10", "4"}, testutil.ColumnStrings(t, out, ColEndMonth))
	assert.Equal(t, []string{"", "2019", "2019"}, testutil.ColumnStrings(t, out, ColEndYear))
	assert.Equal(t, []string{"", "", "31"}, testutil.ColumnStrings(t, out, ColActiveDays))
	assert.Equal(t, []string{"True", "False", "True"}, testutil.ColumnStrings(t, out, ColIsActive))

	assert.Equal(t, 2, report.Coerced[ColBeginDate])
	assert.Equal(t, 1, report.Coerced[ColEndDate])
	assert.Equal(t, map[ExpiryRule]int{RuleObserved: 1, RuleOneMonth: 1}, report.Resolved)

	filled, err := out.FillNulls(FalseString)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "0", "31"}, testutil.ColumnStrings(t, filled, ColActiveDays))
	assert.Equal(t, []string{"0", "0", "3"}, testutil.ColumnStrings(t, filled, ColBeginMonth))
}

func TestCleanContractParallelMatchesSequential(t *testing.T) {
	df := normalized(t, testutil.SyntheticContractRecords(500))

	seqOpts := ContractOptions{ParallelThreshold: 1 << 20}
	parOpts := ContractOptions{ParallelThreshold: 1, Workers: 4}

	seq, seqReport, err := CleanContract(context.Background(), df, seqOpts)
	require.NoError(t, err)
	par, parReport, err := CleanContract(context.Background(), df, parOpts)
	require.NoError(t, err)

	require.Equal(t, seq.Columns(), par.Columns())
	for _, name := range seq.Columns() {
		assert.Equal(t, testutil.ColumnStrings(t, seq, name), testutil.ColumnStrings(t, par, name), name)
	}
	assert.Equal(t, seqReport.Resolved, parReport.Resolved)
	assert.Equal(t, seqReport.Coerced, parReport.Coerced)
}
