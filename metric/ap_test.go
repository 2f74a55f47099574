package metric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordanini/vigat/metric"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

func TestPartialPerfectRanking(t *testing.T) {
	t.Parallel()

	// Every positive outranks every negative in both classes.
	labels := [][]float64{{1, 0}, {1, 1}, {0, 1}, {0, 0}}
	scores := [][]float64{{0.9, 0.1}, {0.8, 0.9}, {0.2, 0.8}, {0.1, 0.2}}

	perClass, mean, err := metric.Partial(labels, scores)
	require.NoError(t, err)
	require.Len(t, perClass, 2)
	assert.InDelta(t, 100, perClass[0], 1e-9)
	assert.InDelta(t, 100, perClass[1], 1e-9)
	assert.InDelta(t, 100, mean, 1e-9)
}

func TestPartialMixedRanking(t *testing.T) {
	t.Parallel()

	// Single class, positives at ranks 1 and 3:
	// AP = (1/1 + 2/3) / 2 = 5/6.
	labels := [][]float64{{1}, {0}, {1}, {0}}
	scores := [][]float64{{0.9}, {0.8}, {0.7}, {0.1}}

	perClass, mean, err := metric.Partial(labels, scores)
	require.NoError(t, err)
	assert.InDelta(t, 100*5.0/6.0, perClass[0], 1e-9)
	assert.InDelta(t, 100*5.0/6.0, mean, 1e-9)
}

func TestPartialExcludesClassesWithoutPositives(t *testing.T) {
	t.Parallel()

	// Class 1 has no positives: it contributes 0 to the per-class slice and
	// is left out of the macro mean entirely.
	labels := [][]float64{{1, 0}, {0, 0}}
	scores := [][]float64{{0.9, 0.5}, {0.1, 0.6}}

	perClass, mean, err := metric.Partial(labels, scores)
	require.NoError(t, err)
	assert.InDelta(t, 100, perClass[0], 1e-9)
	assert.Zero(t, perClass[1])
	assert.InDelta(t, 100, mean, 1e-9)
}

func TestPartialNoPositivesAnywhere(t *testing.T) {
	t.Parallel()

	labels := [][]float64{{0, 0}, {0, 0}}
	scores := [][]float64{{0.9, 0.5}, {0.1, 0.6}}

	_, _, err := metric.Partial(labels, scores)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
}

func TestPartialShapeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		labels [][]float64
		scores [][]float64
	}{
		{name: "empty", labels: nil, scores: nil},
		{name: "row count mismatch", labels: [][]float64{{1}}, scores: [][]float64{{1}, {0}}},
		{name: "column mismatch", labels: [][]float64{{1, 0}}, scores: [][]float64{{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := metric.Partial(tt.labels, tt.scores)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
		})
	}
}

func TestPartialTiesKeepRowOrder(t *testing.T) {
	t.Parallel()

	// Equal scores fall back to collection order, so the positive in row 0
	// stays ahead of the tied negative in row 1.
	labels := [][]float64{{1}, {0}}
	scores := [][]float64{{0.5}, {0.5}}

	perClass, _, err := metric.Partial(labels, scores)
	require.NoError(t, err)
	assert.InDelta(t, 100, perClass[0], 1e-9)
}
