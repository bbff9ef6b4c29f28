package prep

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paveg/churnprep/internal/dataframe"
	"github.com/paveg/churnprep/internal/errors"
	"github.com/paveg/churnprep/internal/series"
	"github.com/paveg/churnprep/internal/validation"
)

// Split is a train/test partition of features and target.
type Split struct {
	XTrain *dataframe.DataFrame
	XTest  *dataframe.DataFrame
	YTrain []bool
	YTest  []bool
}

// SplitTargetFeatures separates the boolean target column from the features.
func SplitTargetFeatures(df *dataframe.DataFrame, target string) (*dataframe.DataFrame, []bool, error) {
	const op = "SplitTargetFeatures"

	if err := validation.NewCompoundValidator(
		validation.NewEmptyValidator(df, op),
		validation.NewColumnValidator(df, op, target),
	).Validate(); err != nil {
		return nil, nil, err
	}

	col, _ := df.Column(target)
	s, ok := col.(*series.Series[bool])
	if !ok {
		return nil, nil, errors.NewValidationError(op, target,
			fmt.Sprintf("target must be boolean, got %s", col.DataType()))
	}
	if s.NullN() > 0 {
		return nil, nil, errors.NewValidationError(op, target,
			fmt.Sprintf("%d missing target values", s.NullN()))
	}

	return df.Drop(target), s.Values(), nil
}

// RandomOverSample duplicates randomly drawn minority-class rows until both
// classes have the same count. Original rows keep their order and come first.
func RandomOverSample(features *dataframe.DataFrame, y []bool, seed int64) (*dataframe.DataFrame, []bool, error) {
	const op = "RandomOverSample"

	if err := checkTarget(op, features, y); err != nil {
		return nil, nil, err
	}

	var positives, negatives []int
	for i, v := range y {
		if v {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}
	if len(positives) == 0 || len(negatives) == 0 {
		return nil, nil, errors.NewValidationError(op, "",
			"target needs both classes to balance")
	}

	minority, missing := positives, len(negatives)-len(positives)
	minorityClass := true
	if missing < 0 {
		minority, missing = negatives, -missing
		minorityClass = false
	}

	indices := make([]int, len(y), len(y)+missing)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	for range missing {
		indices = append(indices, minority[rng.IntN(len(minority))])
	}

	sampled, err := features.Take(indices)
	if err != nil {
		return nil, nil, err
	}

	target := make([]bool, len(indices))
	copy(target, y)
	for i := len(y); i < len(target); i++ {
		target[i] = minorityClass
	}
	return sampled, target, nil
}

// TrainTestSplit shuffles rows with seed and puts ceil(testSize*n) of them in
// the test set.
func TrainTestSplit(features *dataframe.DataFrame, y []bool, testSize float64, seed int64) (*Split, error) {
	const op = "TrainTestSplit"

	if err := checkTarget(op, features, y); err != nil {
		return nil, err
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, errors.NewInvalidInputError(op,
			fmt.Sprintf("test size %g must be in (0, 1)", testSize))
	}

	n := len(y)
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, errors.NewInvalidInputError(op,
			fmt.Sprintf("%d rows leave no training data at test size %g", n, testSize))
	}

	perm := rand.New(rand.NewPCG(uint64(seed), 0)).Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	xTrain, err := features.Take(trainIdx)
	if err != nil {
		return nil, err
	}
	xTest, err := features.Take(testIdx)
	if err != nil {
		return nil, err
	}

	return &Split{
		XTrain: xTrain,
		XTest:  xTest,
		YTrain: pick(y, trainIdx),
		YTest:  pick(y, testIdx),
	}, nil
}

func pick[T any](values []T, indices []int) []T {
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return out
}

func checkTarget(op string, features *dataframe.DataFrame, y []bool) error {
	if err := validation.ValidateNotEmpty(features, op); err != nil {
		return err
	}
	return validation.ValidateLength(features.Len(), len(y), op, "feature rows and target values")
}
