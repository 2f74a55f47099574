// Package checkpoint persists full training state so an interrupted run can
// resume from exactly the epoch it stopped at.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/ordanini/vigat/nn"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// TrainingState is the unit of persistence. Epoch counts completed epochs;
// the three state dicts are opaque blobs owned by their collaborators.
type TrainingState struct {
	Epoch      int          `cbor:"epoch"`
	Loss       float64      `cbor:"loss"`
	ModelState nn.StateDict `cbor:"model_state_dict"`
	OptState   nn.StateDict `cbor:"opt_state_dict"`
	SchedState nn.StateDict `cbor:"sched_state_dict"`
}

// Manager writes two checkpoints per run into a save directory: "last",
// rewritten every epoch, and "best", rewritten only when the early stopper
// marks the epoch as the best seen.
type Manager struct {
	dir   string
	runID string
}

func NewManager(dir, runID string) (*Manager, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required: %w", pkgerrors.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory %q: %w", dir, err)
	}

	return &Manager{dir: dir, runID: runID}, nil
}

func (m *Manager) LastPath() string {
	return filepath.Join(m.dir, "last-"+m.runID+".ckpt")
}

func (m *Manager) BestPath() string {
	return filepath.Join(m.dir, "best-"+m.runID+".ckpt")
}

func (m *Manager) SaveLast(state TrainingState) error {
	return m.save(m.LastPath(), state)
}

func (m *Manager) SaveBest(state TrainingState) error {
	return m.save(m.BestPath(), state)
}

// save replaces path atomically: the record is written and synced to a
// temporary file in the same directory, then renamed over the target. A crash
// mid-write leaves the previous checkpoint untouched.
func (m *Manager) save(path string, state TrainingState) error {
	data, err := cbor.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", pkgerrors.ErrPersistence)
	}

	tmp, err := os.CreateTemp(m.dir, ".ckpt-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint: %w", pkgerrors.ErrPersistence)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("failed to write checkpoint %q: %w", path, pkgerrors.ErrPersistence)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("failed to close checkpoint %q: %w", path, pkgerrors.ErrPersistence)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("failed to replace checkpoint %q: %w", path, pkgerrors.ErrPersistence)
	}

	return nil
}

// Load reads a checkpoint for resumption. Every failure is fatal to startup;
// the orchestrator never falls back to a fresh run when resume was requested.
func Load(path string) (TrainingState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TrainingState{}, fmt.Errorf("failed to read checkpoint %q: %w", path, pkgerrors.ErrResume)
	}

	var state TrainingState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return TrainingState{}, fmt.Errorf("failed to decode checkpoint %q: %w", path, pkgerrors.ErrResume)
	}
	if state.Epoch < 0 || state.ModelState == nil || state.OptState == nil || state.SchedState == nil {
		return TrainingState{}, fmt.Errorf("checkpoint %q is incomplete: %w", path, pkgerrors.ErrResume)
	}

	return state, nil
}
