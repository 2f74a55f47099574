// Package dataset holds album-level feature collections: per-image local
// features, one global feature per album and a binary label matrix.
package dataset

import (
	"fmt"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// Batch is a contiguous slice of albums in collection order.
type Batch struct {
	Local  [][][]float64
	Global [][]float64
	Labels [][]float64
}

// Dataset yields batches in a stable iteration order. Batches(size) covers
// every album exactly once; the validation score matrix relies on that order
// for per-sample label alignment.
type Dataset interface {
	Len() int
	NumClasses() int
	Dims() (local, global int)
	Labels() [][]float64
	Batches(size int) ([]Batch, error)
}

type Albums struct {
	local   [][][]float64
	global  [][]float64
	labels  [][]float64
	classes int
}

func NewAlbums(local [][][]float64, global, labels [][]float64, numClasses int) (*Albums, error) {
	n := len(local)
	if n == 0 {
		return nil, fmt.Errorf("empty collection: %w", pkgerrors.ErrInvalidData)
	}
	if len(global) != n || len(labels) != n {
		return nil, fmt.Errorf("misaligned collection: %d local, %d global, %d labels: %w", n, len(global), len(labels), pkgerrors.ErrInvalidData)
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("num classes %d: %w", numClasses, pkgerrors.ErrInvalidData)
	}
	for i, row := range labels {
		if len(row) != numClasses {
			return nil, fmt.Errorf("album %d has %d labels, want %d: %w", i, len(row), numClasses, pkgerrors.ErrInvalidData)
		}
	}

	return &Albums{
		local:   local,
		global:  global,
		labels:  labels,
		classes: numClasses,
	}, nil
}

func (a *Albums) Len() int {
	return len(a.local)
}

func (a *Albums) NumClasses() int {
	return a.classes
}

func (a *Albums) Dims() (int, int) {
	local := 0
	if len(a.local) > 0 && len(a.local[0]) > 0 {
		local = len(a.local[0][0])
	}
	global := 0
	if len(a.global) > 0 {
		global = len(a.global[0])
	}

	return local, global
}

func (a *Albums) Labels() [][]float64 {
	return a.labels
}

func (a *Albums) Batches(size int) ([]Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size %d: %w", size, pkgerrors.ErrInvalidData)
	}

	n := len(a.local)
	batches := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch{
			Local:  a.local[start:end],
			Global: a.global[start:end],
			Labels: a.labels[start:end],
		})
	}

	return batches, nil
}
