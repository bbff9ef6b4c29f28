package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/paveg/churnprep/internal/errors"
)

// LogisticOptions tunes batch gradient descent.
type LogisticOptions struct {
	LearningRate float64
	Iterations   int
	// L2 is the ridge penalty on the weights; the intercept is not penalized.
	L2 float64
	// Tolerance stops early once the gradient norm drops below it.
	Tolerance float64
}

// DefaultLogisticOptions returns settings that converge on scaled features.
func DefaultLogisticOptions() LogisticOptions {
	return LogisticOptions{
		LearningRate: 0.5,
		Iterations:   2000,
		L2:           1e-3,
		Tolerance:    1e-6,
	}
}

// LogisticRegression is an L2-regularized logistic model fitted by batch
// gradient descent.
type LogisticRegression struct {
	opts      LogisticOptions
	weights   *mat.VecDense
	intercept float64
}

// NewLogisticRegression creates an unfitted model.
func NewLogisticRegression(opts LogisticOptions) *LogisticRegression {
	return &LogisticRegression{opts: opts}
}

// Name implements Classifier.
func (lr *LogisticRegression) Name() string { return "logistic_regression" }

// Weights returns a copy of the fitted coefficients, nil before Fit.
func (lr *LogisticRegression) Weights() []float64 {
	if lr.weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.weights)
}

// Intercept returns the fitted bias term.
func (lr *LogisticRegression) Intercept() float64 { return lr.intercept }

// Fit minimizes the mean log loss plus the L2 penalty.
func (lr *LogisticRegression) Fit(X *mat.Dense, y []bool) error {
	const op = "LogisticRegression.Fit"
	if err := checkFit(op, X, y); err != nil {
		return err
	}
	if lr.opts.Iterations <= 0 || lr.opts.LearningRate <= 0 {
		return errors.NewInvalidInputError(op,
			fmt.Sprintf("iterations %d and learning rate %g must be positive",
				lr.opts.Iterations, lr.opts.LearningRate))
	}

	rows, cols := X.Dims()
	target := mat.NewVecDense(rows, nil)
	for i, v := range y {
		if v {
			target.SetVec(i, 1)
		}
	}

	w := mat.NewVecDense(cols, nil)
	var b float64
	scores := mat.NewVecDense(rows, nil)
	residual := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)
	n := float64(rows)

	for iter := 0; iter < lr.opts.Iterations; iter++ {
		scores.MulVec(X, w)
		for i := 0; i < rows; i++ {
			residual.SetVec(i, sigmoid(scores.AtVec(i)+b)-target.AtVec(i))
		}

		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/n, grad)
		grad.AddScaledVec(grad, lr.opts.L2, w)
		gradB := floats.Sum(residual.RawVector().Data) / n

		w.AddScaledVec(w, -lr.opts.LearningRate, grad)
		b -= lr.opts.LearningRate * gradB

		if math.Hypot(mat.Norm(grad, 2), gradB) < lr.opts.Tolerance {
			break
		}
	}

	lr.weights = w
	lr.intercept = b
	return nil
}

// PredictProba returns P(y = true) for every row of X.
func (lr *LogisticRegression) PredictProba(X *mat.Dense) ([]float64, error) {
	const op = "LogisticRegression.PredictProba"
	if lr.weights == nil {
		return nil, errNotFitted(op)
	}
	if err := checkPredict(op, X); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != lr.weights.Len() {
		return nil, errors.NewInvalidInputError(op,
			fmt.Sprintf("expected %d features, got %d", lr.weights.Len(), cols))
	}

	scores := mat.NewVecDense(rows, nil)
	scores.MulVec(X, lr.weights)
	out := make([]float64, rows)
	for i := range out {
		out[i] = sigmoid(scores.AtVec(i) + lr.intercept)
	}
	return out, nil
}

// Predict thresholds PredictProba at 0.5.
func (lr *LogisticRegression) Predict(X *mat.Dense) ([]bool, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(proba))
	for i, p := range proba {
		out[i] = p >= 0.5
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
