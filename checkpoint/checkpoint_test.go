package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordanini/vigat/checkpoint"
	"github.com/ordanini/vigat/nn"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

func testState() checkpoint.TrainingState {
	return checkpoint.TrainingState{
		Epoch:      7,
		Loss:       0.421,
		ModelState: nn.StateDict{"weight": {0.1, -0.2, 0.3}, "bias": {0.0}},
		OptState:   nn.StateDict{"step": {7}, "lr": {1e-4}, "m.weight": {0, 0, 0}},
		SchedState: nn.StateDict{"last_epoch": {7}},
	}
}

func TestManagerRequiresRunID(t *testing.T) {
	t.Parallel()

	_, err := checkpoint.NewManager(t.TempDir(), "")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)
}

func TestManagerCreatesSaveDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "weights", "nested")
	_, err := checkpoint.NewManager(dir, "run")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := checkpoint.NewManager(dir, "cufed")
	require.NoError(t, err)

	state := testState()
	require.NoError(t, m.SaveLast(state))
	require.NoError(t, m.SaveBest(state))

	assert.Equal(t, filepath.Join(dir, "last-cufed.ckpt"), m.LastPath())
	assert.Equal(t, filepath.Join(dir, "best-cufed.ckpt"), m.BestPath())

	for _, path := range []string{m.LastPath(), m.BestPath()} {
		got, err := checkpoint.Load(path)
		require.NoError(t, err)
		assert.Equal(t, state, got)
	}
}

func TestSaveOverwritesPrevious(t *testing.T) {
	t.Parallel()

	m, err := checkpoint.NewManager(t.TempDir(), "run")
	require.NoError(t, err)

	first := testState()
	require.NoError(t, m.SaveLast(first))

	second := testState()
	second.Epoch = 8
	second.Loss = 0.33
	require.NoError(t, m.SaveLast(second))

	got, err := checkpoint.Load(m.LastPath())
	require.NoError(t, err)
	assert.Equal(t, 8, got.Epoch)
	assert.Equal(t, 0.33, got.Loss)
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := checkpoint.NewManager(dir, "run")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.SaveLast(testState()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "last-run.ckpt", entries[0].Name())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := checkpoint.Load(filepath.Join(t.TempDir(), "last-run.ckpt"))
	assert.ErrorIs(t, err, pkgerrors.ErrResume)
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "last-run.ckpt")
	require.NoError(t, os.WriteFile(path, []byte("not a checkpoint"), 0o644))

	_, err := checkpoint.Load(path)
	assert.ErrorIs(t, err, pkgerrors.ErrResume)
}

func TestLoadIncompleteRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := checkpoint.NewManager(dir, "run")
	require.NoError(t, err)

	state := testState()
	state.OptState = nil
	require.NoError(t, m.SaveLast(state))

	_, err = checkpoint.Load(m.LastPath())
	assert.ErrorIs(t, err, pkgerrors.ErrResume)
}
