// Package prep turns the preprocessed churn table into model inputs:
// target split, class balancing, train/test split, categorical encoding and
// min-max scaling.
package prep

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
)

// FeatureSelector picks the feature columns to keep, given the encoded
// training matrix and its column names.
type FeatureSelector interface {
	Select(X *mat.Dense, y []bool, names []string) ([]string, error)
}

// AllFeatures keeps every column.
type AllFeatures struct{}

// Select returns names unchanged.
func (AllFeatures) Select(_ *mat.Dense, _ []bool, names []string) ([]string, error) {
	return names, nil
}

// Options configures Prepare.
type Options struct {
	Target        string
	OneHotColumns []string
	LabelColumns  []string
	ScaleColumns  []string
	TestSize      float64
	Seed          int64
	OverSample    bool
	Selector      FeatureSelector // nil keeps every feature
	Logger        *zap.Logger
}

// DefaultOptions mirrors the reference preparation: balance is_active, hold
// out 20% with seed 54321, one-hot payment_method, label-encode type and
// scale the numeric columns.
func DefaultOptions() Options {
	return Options{
		Target:        "is_active",
		OneHotColumns: []string{"payment_method"},
		LabelColumns:  []string{"type"},
		ScaleColumns:  []string{"type", "monthly_charges", "total_charges", "active_days"},
		TestSize:      0.2,
		Seed:          54321,
		OverSample:    true,
	}
}

// Data holds the prepared train and test sets. The Encoded frames carry
// one-hot and label codes; the Scaled frames are the same with the scale
// columns mapped onto [0, 1].
type Data struct {
	TrainEncoded *dataframe.DataFrame
	TestEncoded  *dataframe.DataFrame
	TrainScaled  *dataframe.DataFrame
	TestScaled   *dataframe.DataFrame
	YTrain       []bool
	YTest        []bool
	Features     []string
	Ranges       map[string]Range
}

// Matrices converts the scaled frames to dense matrices.
func (d *Data) Matrices() (train, test *mat.Dense, err error) {
	if train, err = ToMatrix(d.TrainScaled); err != nil {
		return nil, nil, fmt.Errorf("train matrix: %w", err)
	}
	if test, err = ToMatrix(d.TestScaled); err != nil {
		return nil, nil, fmt.Errorf("test matrix: %w", err)
	}
	return train, test, nil
}

// Prepare runs the preparation steps in order: split target, oversample,
// train/test split, one-hot, label encode, scale and feature selection.
func Prepare(df *dataframe.DataFrame, opts Options) (*Data, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("prep")

	if opts.Target == "" {
		return nil, errors.NewInvalidInputError("Prepare", "target column is required")
	}

	features, y, err := SplitTargetFeatures(df, opts.Target)
	if err != nil {
		return nil, err
	}

	if opts.OverSample {
		before := len(y)
		if features, y, err = RandomOverSample(features, y, opts.Seed); err != nil {
			return nil, err
		}
		logger.Debug("target balanced", zap.Int("rows_before", before), zap.Int("rows_after", len(y)))
	}

	split, err := TrainTestSplit(features, y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}

	train, test := split.XTrain, split.XTest
	for _, column := range opts.OneHotColumns {
		if train, test, _, err = OneHotEncode(train, test, column); err != nil {
			return nil, err
		}
	}
	for _, column := range opts.LabelColumns {
		if train, test, err = LabelEncode(train, test, column); err != nil {
			return nil, err
		}
	}

	trainScaled, testScaled, ranges, err := MinMaxScale(train, test, opts.ScaleColumns)
	if err != nil {
		return nil, err
	}

	data := &Data{
		TrainEncoded: train,
		TestEncoded:  test,
		TrainScaled:  trainScaled,
		TestScaled:   testScaled,
		YTrain:       split.YTrain,
		YTest:        split.YTest,
		Features:     train.Columns(),
		Ranges:       ranges,
	}

	if opts.Selector != nil {
		if err := data.selectFeatures(opts.Selector); err != nil {
			return nil, err
		}
	}

	logger.Info("data prepared",
		zap.Int("train_rows", len(data.YTrain)),
		zap.Int("test_rows", len(data.YTest)),
		zap.Int("features", len(data.Features)))

	return data, nil
}

func (d *Data) selectFeatures(selector FeatureSelector) error {
	X, err := ToMatrix(d.TrainEncoded)
	if err != nil {
		return err
	}
	keep, err := selector.Select(X, d.YTrain, d.Features)
	if err != nil {
		return fmt.Errorf("selecting features: %w", err)
	}
	for _, name := range keep {
		if !d.TrainEncoded.HasColumn(name) {
			return errors.NewColumnNotFoundError("selectFeatures", name)
		}
	}
	if len(keep) == 0 {
		return errors.NewValidationError("selectFeatures", "", "selector kept no features")
	}

	d.TrainEncoded = d.TrainEncoded.Select(keep...)
	d.TestEncoded = d.TestEncoded.Select(keep...)
	d.TrainScaled = d.TrainScaled.Select(keep...)
	d.TestScaled = d.TestScaled.Select(keep...)
	d.Features = append([]string(nil), keep...)
	return nil
}
