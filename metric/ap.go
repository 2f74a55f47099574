// Package metric implements the ranking metric used for validation scoring:
// per-class average precision and its macro mean on a 0-100 scale.
package metric

import (
	"fmt"
	"sort"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// Partial computes per-class average precision over a score matrix. Classes
// with no positive labels carry no signal and are excluded from the macro
// mean. Both returned values are percentages.
func Partial(labels, scores [][]float64) ([]float64, float64, error) {
	if len(labels) == 0 || len(labels) != len(scores) {
		return nil, 0, fmt.Errorf("labels %d rows vs scores %d rows: %w", len(labels), len(scores), pkgerrors.ErrInvalidData)
	}
	classes := len(labels[0])
	for i := range labels {
		if len(labels[i]) != classes || len(scores[i]) != classes {
			return nil, 0, fmt.Errorf("row %d shape mismatch: %w", i, pkgerrors.ErrInvalidData)
		}
	}

	perClass := make([]float64, classes)
	var macroSum float64
	var scored int
	for c := 0; c < classes; c++ {
		ap, ok := averagePrecision(labels, scores, c)
		if !ok {
			continue
		}
		perClass[c] = ap * 100
		macroSum += ap
		scored++
	}

	if scored == 0 {
		return nil, 0, fmt.Errorf("no class has positive labels: %w", pkgerrors.ErrInvalidData)
	}

	return perClass, macroSum / float64(scored) * 100, nil
}

func averagePrecision(labels, scores [][]float64, class int) (float64, bool) {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]][class] > scores[order[b]][class]
	})

	var positives int
	var sum float64
	for rank, idx := range order {
		if labels[idx][class] > 0 {
			positives++
			sum += float64(positives) / float64(rank+1)
		}
	}
	if positives == 0 {
		return 0, false
	}

	return sum / float64(positives), true
}
