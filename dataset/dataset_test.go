package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordanini/vigat/dataset"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

func sample(t *testing.T, n int) *dataset.Albums {
	t.Helper()

	local := make([][][]float64, n)
	global := make([][]float64, n)
	labels := make([][]float64, n)
	for i := 0; i < n; i++ {
		local[i] = [][]float64{{float64(i), float64(i) + 0.5}}
		global[i] = []float64{float64(i) * 10}
		labels[i] = []float64{float64(i % 2), float64((i + 1) % 2)}
	}

	albums, err := dataset.NewAlbums(local, global, labels, 2)
	require.NoError(t, err)

	return albums
}

func TestNewAlbumsValidation(t *testing.T) {
	t.Parallel()

	local := [][][]float64{{{1, 2}}}
	global := [][]float64{{1}}
	labels := [][]float64{{1, 0}}

	tests := []struct {
		name    string
		local   [][][]float64
		global  [][]float64
		labels  [][]float64
		classes int
	}{
		{name: "empty collection", local: nil, global: nil, labels: nil, classes: 2},
		{name: "global misaligned", local: local, global: nil, labels: labels, classes: 2},
		{name: "labels misaligned", local: local, global: global, labels: nil, classes: 2},
		{name: "zero classes", local: local, global: global, labels: labels, classes: 0},
		{name: "label width mismatch", local: local, global: global, labels: [][]float64{{1}}, classes: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := dataset.NewAlbums(tt.local, tt.global, tt.labels, tt.classes)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
		})
	}
}

func TestBatchesCoverEveryAlbumInOrder(t *testing.T) {
	t.Parallel()

	albums := sample(t, 7)

	batches, err := albums.Batches(3)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Global, 3)
	assert.Len(t, batches[1].Global, 3)
	assert.Len(t, batches[2].Global, 1)

	idx := 0
	for _, b := range batches {
		for i := range b.Global {
			assert.Equal(t, []float64{float64(idx) * 10}, b.Global[i])
			assert.Equal(t, albums.Labels()[idx], b.Labels[i])
			idx++
		}
	}
	assert.Equal(t, albums.Len(), idx)
}

func TestBatchesLargerThanCollection(t *testing.T) {
	t.Parallel()

	albums := sample(t, 3)

	batches, err := albums.Batches(10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].Local, 3)
}

func TestBatchesInvalidSize(t *testing.T) {
	t.Parallel()

	albums := sample(t, 3)

	_, err := albums.Batches(0)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)
}

func TestDims(t *testing.T) {
	t.Parallel()

	albums := sample(t, 2)
	local, global := albums.Dims()
	assert.Equal(t, 2, local)
	assert.Equal(t, 1, global)
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	albums := sample(t, 5)
	path := filepath.Join(t.TempDir(), "train.cbor")

	require.NoError(t, dataset.WriteFile(path, albums))

	loaded, err := dataset.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, albums.Len(), loaded.Len())
	assert.Equal(t, albums.NumClasses(), loaded.NumClasses())
	assert.Equal(t, albums.Labels(), loaded.Labels())

	want, err := albums.Batches(albums.Len())
	require.NoError(t, err)
	got, err := loaded.Batches(loaded.Len())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := dataset.LoadFile(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)
}

func TestLoadFileCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.cbor")
	require.NoError(t, os.WriteFile(path, []byte("definitely not cbor"), 0o644))

	_, err := dataset.LoadFile(path)
	assert.Error(t, err)
}
