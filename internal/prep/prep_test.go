package prep_test

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/paveg/churnprep/internal/churn"
	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/prep"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/testutil"
)

// customers builds ten rows: seven active, three churned, two contract types
// with five rows each.
func customers(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	mem := memory.NewGoAllocator()

	return dataframe.New(
		series.New("type", []string{
			"Month-to-month", "Two year", "Month-to-month", "Two year", "Month-to-month",
			"Two year", "Month-to-month", "Two year", "Month-to-month", "Two year",
		}, mem),
		series.New("payment_method", []string{
			"Mailed check", "Electronic check", "Credit card", "Mailed check", "Electronic check",
			"Credit card", "Mailed check", "Electronic check", "Credit card", "Mailed check",
		}, mem),
		series.New("monthly_charges", []float64{20, 30, 40, 50, 60, 70, 80, 90, 100, 110}, mem),
		series.New("total_charges", []float64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}, mem),
		series.New("active_days", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, mem),
		series.New("senior_citizen", []string{"0", "1", "0", "0", "1", "0", "0", "1", "0", "0"}, mem),
		series.New("is_active", []bool{true, true, false, true, true, false, true, true, false, true}, mem),
	)
}

func countTrue(values []bool) int {
	n := 0
	for _, v := range values {
		if v {
			n++
		}
	}
	return n
}

func TestSplitTargetFeatures(t *testing.T) {
	df := customers(t)

	features, y, err := prep.SplitTargetFeatures(df, "is_active")
	require.NoError(t, err)
	assert.False(t, features.HasColumn("is_active"))
	assert.Equal(t, df.Width()-1, features.Width())
	assert.Len(t, y, 10)
	assert.Equal(t, 7, countTrue(y))

	t.Run("missing target", func(t *testing.T) {
		_, _, err := prep.SplitTargetFeatures(df, "churned")
		assert.ErrorIs(t, err, errors.ErrColumnNotFound)
	})

	t.Run("non boolean target", func(t *testing.T) {
		_, _, err := prep.SplitTargetFeatures(df, "type")
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("missing target values", func(t *testing.T) {
		target, err := series.NewNullable("is_active", []bool{true, false}, []bool{true, false}, nil)
		require.NoError(t, err)
		_, _, err = prep.SplitTargetFeatures(dataframe.New(target), "is_active")
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("empty frame", func(t *testing.T) {
		empty := dataframe.New(series.New("is_active", []bool{}, nil))
		_, _, err := prep.SplitTargetFeatures(empty, "is_active")
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestRandomOverSample(t *testing.T) {
	features, y, err := prep.SplitTargetFeatures(customers(t), "is_active")
	require.NoError(t, err)

	sampled, target, err := prep.RandomOverSample(features, y, 54321)
	require.NoError(t, err)

	assert.Equal(t, 14, sampled.Len())
	require.Len(t, target, 14)
	assert.Equal(t, 7, countTrue(target))
	assert.Equal(t, y, target[:10], "original rows come first")

	days := testutil.ColumnStrings(t, sampled, "active_days")
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, days[:10])
	for _, d := range days[10:] {
		assert.Contains(t, []string{"3", "6", "9"}, d, "duplicates come from the minority class")
	}

	again, _, err := prep.RandomOverSample(features, y, 54321)
	require.NoError(t, err)
	assert.Equal(t, days, testutil.ColumnStrings(t, again, "active_days"))

	t.Run("single class", func(t *testing.T) {
		_, _, err := prep.RandomOverSample(features, make([]bool, 10), 1)
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := prep.RandomOverSample(features, y[:3], 1)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestTrainTestSplit(t *testing.T) {
	features, y, err := prep.SplitTargetFeatures(customers(t), "is_active")
	require.NoError(t, err)

	split, err := prep.TrainTestSplit(features, y, 0.2, 54321)
	require.NoError(t, err)

	assert.Equal(t, 8, split.XTrain.Len())
	assert.Equal(t, 2, split.XTest.Len())
	assert.Len(t, split.YTrain, 8)
	assert.Len(t, split.YTest, 2)

	all := append(testutil.ColumnStrings(t, split.XTrain, "active_days"),
		testutil.ColumnStrings(t, split.XTest, "active_days")...)
	assert.ElementsMatch(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, all)
	assert.Equal(t, 7, countTrue(split.YTrain)+countTrue(split.YTest))

	again, err := prep.TrainTestSplit(features, y, 0.2, 54321)
	require.NoError(t, err)
	assert.Equal(t, testutil.ColumnStrings(t, split.XTest, "active_days"),
		testutil.ColumnStrings(t, again.XTest, "active_days"))
	assert.Equal(t, split.YTest, again.YTest)

	t.Run("test size is rounded up", func(t *testing.T) {
		split, err := prep.TrainTestSplit(features, y, 0.25, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, split.XTest.Len())
	})

	tests := []struct {
		name     string
		testSize float64
	}{
		{"zero", 0},
		{"one", 1},
		{"no training rows", 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prep.TrainTestSplit(features, y, tt.testSize, 1)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestOneHotEncode(t *testing.T) {
	mem := memory.NewGoAllocator()
	train := dataframe.New(
		series.New("payment_method", []string{"Mailed check", "Electronic check", "Mailed check"}, mem),
		series.New("monthly_charges", []float64{1, 2, 3}, mem),
	)
	test := dataframe.New(
		series.New("payment_method", []string{"Credit card", "Electronic check"}, mem),
		series.New("monthly_charges", []float64{4, 5}, mem),
	)

	trainOut, testOut, names, err := prep.OneHotEncode(train, test, "payment_method")
	require.NoError(t, err)

	assert.Equal(t, []string{"payment_method_Electronic check", "payment_method_Mailed check"}, names)
	assert.Equal(t, append([]string{"monthly_charges"}, names...), trainOut.Columns())
	assert.Equal(t, trainOut.Columns(), testOut.Columns())

	assert.Equal(t, []string{"False", "True", "False"}, testutil.ColumnStrings(t, trainOut, names[0]))
	assert.Equal(t, []string{"True", "False", "True"}, testutil.ColumnStrings(t, trainOut, names[1]))
	assert.Equal(t, []string{"False", "True"}, testutil.ColumnStrings(t, testOut, names[0]))
	assert.Equal(t, []string{"False", "False"}, testutil.ColumnStrings(t, testOut, names[1]), "unseen category")

	t.Run("missing column", func(t *testing.T) {
		_, _, _, err := prep.OneHotEncode(train, test.Drop("payment_method"), "payment_method")
		assert.ErrorIs(t, err, errors.ErrColumnNotFound)
	})
}

func TestLabelEncode(t *testing.T) {
	mem := memory.NewGoAllocator()
	train := dataframe.New(series.New("type", []string{"Two year", "Month-to-month", "One year", "Two year"}, mem))
	test := dataframe.New(series.New("type", []string{"One year", "Month-to-month"}, mem))

	trainOut, testOut, err := prep.LabelEncode(train, test, "type")
	require.NoError(t, err)

	col, _ := trainOut.Column("type")
	codes, ok := col.(*series.Series[int64])
	require.True(t, ok)
	assert.Equal(t, []int64{2, 0, 1, 2}, codes.Values())
	assert.Equal(t, []string{"1", "0"}, testutil.ColumnStrings(t, testOut, "type"))

	t.Run("unseen label", func(t *testing.T) {
		unseen := dataframe.New(series.New("type", []string{"Three year"}, mem))
		_, _, err := prep.LabelEncode(train, unseen, "type")
		assert.ErrorIs(t, err, errors.ErrValidation)
		assert.Contains(t, err.Error(), "Three year")
	})

	t.Run("missing value", func(t *testing.T) {
		missing, err := series.NewNullable("type", []string{"", "One year"}, []bool{false, true}, mem)
		require.NoError(t, err)
		_, _, err = prep.LabelEncode(train, dataframe.New(missing), "type")
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestMinMaxScale(t *testing.T) {
	mem := memory.NewGoAllocator()
	train := dataframe.New(
		series.New("monthly_charges", []float64{10, 20, 30}, mem),
		series.New("active_days", []int64{5, 5, 5}, mem),
		series.New("payment_method", []string{"a", "b", "c"}, mem),
	)
	test := dataframe.New(
		series.New("monthly_charges", []float64{40, 15}, mem),
		series.New("active_days", []int64{7, 5}, mem),
		series.New("payment_method", []string{"a", "b"}, mem),
	)

	trainOut, testOut, ranges, err := prep.MinMaxScale(train, test, []string{"monthly_charges", "active_days"})
	require.NoError(t, err)

	assert.Equal(t, prep.Range{Min: 10, Max: 30}, ranges["monthly_charges"])
	assert.Equal(t, train.Columns(), trainOut.Columns(), "column order is kept")

	scaled, err := prep.NumericValues(trainOut, "monthly_charges")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, scaled, 1e-12)

	scaled, err = prep.NumericValues(testOut, "monthly_charges")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 0.25}, scaled, 1e-12)

	constant, err := prep.NumericValues(testOut, "active_days")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, constant, "constant train column maps to 0")

	t.Run("non numeric column", func(t *testing.T) {
		_, _, _, err := prep.MinMaxScale(train, test, []string{"payment_method"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("empty train", func(t *testing.T) {
		empty := dataframe.New(series.New("monthly_charges", []float64{}, mem))
		_, _, _, err := prep.MinMaxScale(empty, test, []string{"monthly_charges"})
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestToMatrix(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("is_male", []bool{true, false}, mem),
		series.New("senior_citizen", []string{"1", "False"}, mem),
		series.New("active_days", []int64{31, 721}, mem),
	)

	m, err := prep.ToMatrix(df)
	require.NoError(t, err)

	expected := mat.NewDense(2, 3, []float64{1, 1, 31, 0, 0, 721})
	assert.True(t, mat.Equal(expected, m))

	_, err = prep.ToMatrix(dataframe.New())
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

type keepOnly []string

func (k keepOnly) Select(_ *mat.Dense, _ []bool, _ []string) ([]string, error) {
	return k, nil
}

func TestPrepare(t *testing.T) {
	opts := prep.DefaultOptions()

	data, err := prep.Prepare(customers(t), opts)
	require.NoError(t, err)

	assert.Len(t, data.YTrain, 11)
	assert.Len(t, data.YTest, 3)
	assert.Equal(t, 7, countTrue(append(append([]bool(nil), data.YTrain...), data.YTest...)))

	assert.False(t, data.TrainEncoded.HasColumn("payment_method"))
	assert.True(t, data.TrainEncoded.HasColumn("payment_method_Credit card"))
	assert.Equal(t, data.Features, data.TrainScaled.Columns())
	assert.Equal(t, data.TrainScaled.Columns(), data.TestScaled.Columns())

	typeCol, _ := data.TrainEncoded.Column("type")
	_, isCode := typeCol.(*series.Series[int64])
	assert.True(t, isCode, "type is label encoded")

	for _, name := range opts.ScaleColumns {
		values, err := prep.NumericValues(data.TrainScaled, name)
		require.NoError(t, err)
		for _, v := range values {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
	}

	train, test, err := data.Matrices()
	require.NoError(t, err)
	rows, cols := train.Dims()
	assert.Equal(t, 11, rows)
	assert.Equal(t, len(data.Features), cols)
	rows, _ = test.Dims()
	assert.Equal(t, 3, rows)

	t.Run("without oversampling", func(t *testing.T) {
		opts := prep.DefaultOptions()
		opts.OverSample = false
		data, err := prep.Prepare(customers(t), opts)
		require.NoError(t, err)
		assert.Len(t, data.YTrain, 8)
		assert.Len(t, data.YTest, 2)
	})

	t.Run("selector", func(t *testing.T) {
		opts := prep.DefaultOptions()
		opts.Selector = keepOnly{"monthly_charges", "active_days"}
		data, err := prep.Prepare(customers(t), opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"monthly_charges", "active_days"}, data.Features)
		assert.Equal(t, data.Features, data.TestScaled.Columns())
		assert.Equal(t, data.Features, data.TrainEncoded.Columns())
	})

	t.Run("selector keeps unknown column", func(t *testing.T) {
		opts := prep.DefaultOptions()
		opts.Selector = keepOnly{"tenure"}
		_, err := prep.Prepare(customers(t), opts)
		assert.ErrorIs(t, err, errors.ErrColumnNotFound)
	})

	t.Run("missing target", func(t *testing.T) {
		opts := prep.DefaultOptions()
		opts.Target = ""
		_, err := prep.Prepare(customers(t), opts)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestPrepareAfterPreprocess(t *testing.T) {
	contract, internet, personal, phone := testutil.RawFrames(memory.NewGoAllocator())
	result, err := churn.Preprocess(context.Background(), churn.RawTables{
		Contract: contract,
		Internet: internet,
		Personal: personal,
		Phone:    phone,
	}, churn.Options{Contract: churn.ContractOptions{Resolver: churn.NewResolver(0, churn.PolicyOneMonth)}})
	require.NoError(t, err)

	opts := prep.DefaultOptions()
	opts.OneHotColumns = []string{"payment_method", "type"}
	opts.LabelColumns = nil
	opts.ScaleColumns = []string{"monthly_charges", "total_charges", "active_days"}

	data, err := prep.Prepare(result.Frame, opts)
	require.NoError(t, err)

	// five active, one churned: balanced to ten rows
	assert.Len(t, data.YTrain, 8)
	assert.Len(t, data.YTest, 2)

	train, _, err := data.Matrices()
	require.NoError(t, err)
	_, cols := train.Dims()
	assert.Equal(t, len(data.Features), cols)
}
