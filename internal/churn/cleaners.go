package churn

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/churnprep/internal/common"
	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/validation"
)

var (
	personalBinary = []BinaryColumn{
		{Name: ColGender, Rename: ColIsMale},
		{Name: ColPartner},
		{Name: ColDependents},
	}

	internetBinary = []BinaryColumn{
		{Name: ColInternetService, Rename: ColIsFiberOptic},
		{Name: ColOnlineSecurity},
		{Name: ColOnlineBackup},
		{Name: ColDeviceProtection},
		{Name: ColTechSupport},
		{Name: ColStreamingTV},
		{Name: ColStreamingMovies},
	}

	phoneBinary = []BinaryColumn{
		{Name: ColMultipleLines},
	}
)

// CleanPersonal encodes gender, partner and dependents and reads
// senior_citizen as an integer flag. The gender flag is named is_male. A
// senior_citizen cell that is not an integer becomes missing.
func CleanPersonal(df *dataframe.DataFrame) (*dataframe.DataFrame, CleaningReport, error) {
	const op = "CleanPersonal"
	out, report, err := cleanBinaryTable(df, TablePersonal, op, personalBinary)
	if err != nil {
		return nil, report, err
	}

	out, coerced, err := coerceInt(out, op, ColSeniorCitizen)
	if err != nil {
		return nil, report, err
	}
	if coerced > 0 {
		report.Coerced[ColSeniorCitizen] = coerced
	}
	return out, report, nil
}

// CleanInternet encodes the service type (as is_fiber_optic) and the six
// add-on flags.
func CleanInternet(df *dataframe.DataFrame) (*dataframe.DataFrame, CleaningReport, error) {
	return cleanBinaryTable(df, TableInternet, "CleanInternet", internetBinary)
}

// CleanPhone encodes multiple_lines.
func CleanPhone(df *dataframe.DataFrame) (*dataframe.DataFrame, CleaningReport, error) {
	return cleanBinaryTable(df, TablePhone, "CleanPhone", phoneBinary)
}

func cleanBinaryTable(
	df *dataframe.DataFrame, table Table, op string, columns []BinaryColumn,
) (*dataframe.DataFrame, CleaningReport, error) {
	report := newReport(table, df.Len())

	required := make([]string, 0, len(columns)+1)
	required = append(required, ColCustomerID)
	for _, c := range columns {
		required = append(required, c.Name)
	}
	if err := validation.ValidateColumns(df, op, required...); err != nil {
		return nil, report, err
	}

	cleaned, err := EncodeBinary(df, op, columns...)
	if err != nil {
		return nil, report, err
	}
	for _, c := range columns {
		report.Encoded = append(report.Encoded, c.Name)
	}
	return cleaned, report, nil
}

// coerceInt replaces a text column with int64 values in place, returning how
// many non-missing cells could not be parsed.
func coerceInt(df *dataframe.DataFrame, op, column string) (*dataframe.DataFrame, int, error) {
	col, ok := df.Column(column)
	if !ok {
		return nil, 0, errors.NewColumnNotFoundError(op, column)
	}

	values := make([]int64, col.Len())
	valid := make([]bool, col.Len())
	coerced := 0
	for i := range values {
		if col.IsNull(i) {
			continue
		}
		if values[i], valid[i] = common.ParseInt(col.GetAsString(i)); !valid[i] {
			coerced++
		}
	}

	s, err := series.NewNullable(column, values, valid, memory.NewGoAllocator())
	if err != nil {
		return nil, 0, err
	}
	return df.WithColumn(s), coerced, nil
}
