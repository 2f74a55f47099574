// Package trainer drives album-classifier training epoch by epoch: one
// training pass, one validation pass, an early-stopping decision and a
// checkpoint write per epoch, with resumption from a saved checkpoint.
package trainer

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

type State uint8

const (
	Initializing State = iota
	Running
	StoppedEarly
	StoppedBudget
	Failed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Running:
		return "Running"
	case StoppedEarly:
		return "StoppedEarly"
	case StoppedBudget:
		return "StoppedBudget"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config carries every knob the orchestration core needs. It is constructed
// once and passed by value; there is no ambient configuration state.
type Config struct {
	RunID        string
	Seed         int64
	Epochs       int
	BatchSize    int
	LearningRate float64
	Milestones   []int
	Gamma        float64
	Resume       string
	SaveDir      string
	Patience     int
	MinDelta     float64
	Threshold    float64
}

func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("num epochs must be positive, got %d: %w", c.Epochs, pkgerrors.ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d: %w", c.BatchSize, pkgerrors.ErrInvalidConfig)
	}
	if c.Patience < 0 {
		return fmt.Errorf("patience must not be negative, got %d: %w", c.Patience, pkgerrors.ErrInvalidConfig)
	}
	if c.MinDelta < 0 {
		return fmt.Errorf("min delta must not be negative, got %f: %w", c.MinDelta, pkgerrors.ErrInvalidConfig)
	}

	return nil
}

// Summary reports how a run terminated. Epoch is the number of completed
// epochs at termination.
type Summary struct {
	State     State   `json:"state"`
	Epoch     int     `json:"epoch"`
	LastLoss  float64 `json:"last_loss"`
	BestScore float64 `json:"best_score"`
}

// Status is a point-in-time view of a run, served over the HTTP API.
type Status struct {
	RunID     string  `json:"run_id"`
	State     string  `json:"state"`
	Epoch     int     `json:"epoch"`
	LastLoss  float64 `json:"last_loss"`
	BestScore float64 `json:"best_score"`
}

// EpochRecord is the history entry stored after every completed epoch.
type EpochRecord struct {
	Epoch            int           `json:"epoch"`
	Loss             float64       `json:"loss"`
	Score            float64       `json:"score"`
	SavedBest        bool          `json:"saved_best"`
	TrainDuration    time.Duration `json:"train_duration"`
	ValidateDuration time.Duration `json:"validate_duration"`
}

type Service interface {
	// Run executes the epoch loop until early stop, budget exhaustion or
	// failure. It is not safe to invoke concurrently.
	Run(ctx context.Context) (Summary, error)

	// Status reports the current run state.
	Status(ctx context.Context) (Status, error)

	// History pages through completed epoch records.
	History(ctx context.Context, offset, limit uint64) ([]EpochRecord, uint64, error)
}
