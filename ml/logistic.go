package ml

import (
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary logistic model.
type LogisticRegression struct {
	coefficients []float64
	intercept    float64
}

func NewLogisticRegression(coefficients []float64, intercept float64, width, classCount int) (*LogisticRegression, error) {
	if classCount != 2 {
		return nil, fmt.Errorf("logistic regression needs 2 classes, got %d", classCount)
	}
	if len(coefficients) != width {
		return nil, fmt.Errorf("got %d coefficients for %d features", len(coefficients), width)
	}
	return &LogisticRegression{
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
	}, nil
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	if len(features) != len(lr.coefficients) {
		return nil, fmt.Errorf("expected %d features, got %d", len(lr.coefficients), len(features))
	}
	z := lr.intercept
	for i, w := range lr.coefficients {
		z += w * features[i]
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}
