package nn

import (
	"fmt"
	"math"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// BCEWithLogits is binary cross entropy over raw logits, averaged over every
// batch element and class. The gradient it returns carries the averaging, so
// Model.Backward only accumulates.
type BCEWithLogits struct{}

func NewBCEWithLogits() *BCEWithLogits {
	return &BCEWithLogits{}
}

func (BCEWithLogits) Loss(logits, labels [][]float64) (float64, [][]float64, error) {
	if len(logits) != len(labels) || len(logits) == 0 {
		return 0, nil, fmt.Errorf("logits batch %d vs labels batch %d: %w", len(logits), len(labels), pkgerrors.ErrInvalidData)
	}

	var sum float64
	var count int
	grad := make([][]float64, len(logits))
	for i := range logits {
		if len(logits[i]) != len(labels[i]) {
			return 0, nil, fmt.Errorf("row %d: %d logits vs %d labels: %w", i, len(logits[i]), len(labels[i]), pkgerrors.ErrInvalidData)
		}
		grad[i] = make([]float64, len(logits[i]))
		count += len(logits[i])
	}

	inv := 1 / float64(count)
	for i, row := range logits {
		for c, z := range row {
			y := labels[i][c]
			// Numerically stable form: max(z,0) - z*y + log(1+exp(-|z|)).
			sum += math.Max(z, 0) - z*y + math.Log1p(math.Exp(-math.Abs(z)))
			grad[i][c] = (sigmoid(z) - y) * inv
		}
	}

	return sum * inv, grad, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
