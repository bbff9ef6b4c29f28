package model

import (
	"fmt"
	"sort"

	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/paveg/churnprep/internal/errors"
)

// Metrics summarizes predictions against the true labels.
type Metrics struct {
	ROCAUC   float64 `json:"roc_auc"`
	F1       float64 `json:"f1"`
	Accuracy float64 `json:"accuracy"`
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (m Metrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("roc_auc", m.ROCAUC)
	enc.AddFloat64("f1", m.F1)
	enc.AddFloat64("accuracy", m.Accuracy)
	return nil
}

func (m Metrics) String() string {
	return fmt.Sprintf("ROC-AUC: %.4f  F1: %.4f  Accuracy: %.4f", m.ROCAUC, m.F1, m.Accuracy)
}

// Evaluate scores hard predictions. yTrue must contain both classes.
func Evaluate(yTrue, yPred []bool) (Metrics, error) {
	scores := make([]float64, len(yPred))
	for i, p := range yPred {
		if p {
			scores[i] = 1
		}
	}
	return EvaluateScores(yTrue, yPred, scores)
}

// EvaluateScores computes ROC-AUC from scores and F1 and accuracy from the
// hard predictions.
func EvaluateScores(yTrue, yPred []bool, scores []float64) (Metrics, error) {
	const op = "Evaluate"

	if len(yTrue) == 0 {
		return Metrics{}, errors.NewInvalidInputError(op, "no labels")
	}
	if len(yPred) != len(yTrue) || len(scores) != len(yTrue) {
		return Metrics{}, errors.NewInvalidInputError(op,
			fmt.Sprintf("%d labels, %d predictions and %d scores", len(yTrue), len(yPred), len(scores)))
	}

	auc, err := ROCAUC(yTrue, scores)
	if err != nil {
		return Metrics{}, err
	}

	var tp, fp, fn, correct int
	for i, truth := range yTrue {
		pred := yPred[i]
		switch {
		case truth && pred:
			tp++
		case !truth && pred:
			fp++
		case truth && !pred:
			fn++
		}
		if truth == pred {
			correct++
		}
	}

	var f1 float64
	if denom := 2*tp + fp + fn; denom > 0 {
		f1 = float64(2*tp) / float64(denom)
	}

	return Metrics{
		ROCAUC:   auc,
		F1:       f1,
		Accuracy: float64(correct) / float64(len(yTrue)),
	}, nil
}

// ROCAUC returns the area under the ROC curve of scores for labels.
func ROCAUC(labels []bool, scores []float64) (float64, error) {
	const op = "ROCAUC"

	positives := 0
	for _, l := range labels {
		if l {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return 0, errors.NewValidationError(op, "",
			"only one class present in labels, ROC-AUC is undefined")
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	y := make([]float64, len(order))
	classes := make([]bool, len(order))
	for i, idx := range order {
		y[i] = scores[idx]
		classes[i] = labels[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
