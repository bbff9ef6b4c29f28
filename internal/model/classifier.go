// Package model provides baseline churn classifiers and their evaluation.
// Stronger learners plug in through the Classifier interface.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/paveg/churnprep/internal/errors"
)

// Classifier is a binary classifier over dense feature matrices.
type Classifier interface {
	Name() string
	Fit(X *mat.Dense, y []bool) error
	Predict(X *mat.Dense) ([]bool, error)
}

// DummyClassifier always predicts the most frequent training class. Ties go
// to false.
type DummyClassifier struct {
	fitted   bool
	majority bool
}

// NewDummyClassifier creates an unfitted most-frequent baseline.
func NewDummyClassifier() *DummyClassifier {
	return &DummyClassifier{}
}

// Name implements Classifier.
func (d *DummyClassifier) Name() string { return "dummy" }

// Fit records the majority class of y.
func (d *DummyClassifier) Fit(X *mat.Dense, y []bool) error {
	if err := checkFit("DummyClassifier.Fit", X, y); err != nil {
		return err
	}
	positives := 0
	for _, v := range y {
		if v {
			positives++
		}
	}
	d.majority = positives > len(y)-positives
	d.fitted = true
	return nil
}

// Predict returns the majority class for every row of X.
func (d *DummyClassifier) Predict(X *mat.Dense) ([]bool, error) {
	const op = "DummyClassifier.Predict"
	if !d.fitted {
		return nil, errNotFitted(op)
	}
	if err := checkPredict(op, X); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := make([]bool, rows)
	for i := range out {
		out[i] = d.majority
	}
	return out, nil
}

func checkFit(op string, X *mat.Dense, y []bool) error {
	if X == nil || X.IsEmpty() {
		return errors.NewInvalidInputError(op, "empty feature matrix")
	}
	rows, _ := X.Dims()
	if rows != len(y) {
		return errors.NewInvalidInputError(op,
			fmt.Sprintf("%d feature rows but %d target values", rows, len(y)))
	}
	return nil
}

func checkPredict(op string, X *mat.Dense) error {
	if X == nil || X.IsEmpty() {
		return errors.NewInvalidInputError(op, "empty feature matrix")
	}
	return nil
}

func errNotFitted(op string) error {
	return errors.NewInvalidInputError(op, "model is not fitted")
}
