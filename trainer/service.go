package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/ordanini/vigat/checkpoint"
	"github.com/ordanini/vigat/dataset"
	"github.com/ordanini/vigat/nn"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
	"github.com/ordanini/vigat/pkg/storage"
)

// MetricFunc scores a filled validation matrix against the ground-truth
// label matrix. The second return value is the macro-averaged score.
type MetricFunc func(labels, scores [][]float64) ([]float64, float64, error)

type service struct {
	cfg      Config
	model    nn.Model
	opt      nn.Optimizer
	sched    nn.Scheduler
	crit     nn.Criterion
	trainSet dataset.Dataset
	valSet   dataset.Dataset
	ckpts    *checkpoint.Manager
	metricFn MetricFunc
	history  storage.Storage
	metrics  *Metrics
	logger   *slog.Logger

	mu        sync.RWMutex
	state     State
	epoch     int
	lastLoss  float64
	bestScore float64
}

func NewService(cfg Config, model nn.Model, opt nn.Optimizer, sched nn.Scheduler, crit nn.Criterion, trainSet, valSet dataset.Dataset, ckpts *checkpoint.Manager, metricFn MetricFunc, history storage.Storage, metrics *Metrics, logger *slog.Logger) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewNopMetrics()
	}

	return &service{
		cfg:       cfg,
		model:     model,
		opt:       opt,
		sched:     sched,
		crit:      crit,
		trainSet:  trainSet,
		valSet:    valSet,
		ckpts:     ckpts,
		metricFn:  metricFn,
		history:   history,
		metrics:   metrics,
		logger:    logger,
		state:     Initializing,
		bestScore: math.Inf(-1),
	}, nil
}

func (svc *service) Run(ctx context.Context) (Summary, error) {
	startEpoch, err := svc.initialize()
	if err != nil {
		return svc.fail(err)
	}

	// Fresh stopper even on resume: patience and best-score history are not
	// persisted alongside the training state.
	stopper := NewEarlyStopper(svc.cfg.Patience, svc.cfg.MinDelta, svc.cfg.Threshold)

	svc.setState(Running)
	for epoch := startEpoch; epoch < svc.cfg.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return svc.fail(ctx.Err())
		default:
		}

		epochCnt := epoch + 1

		t0 := time.Now()
		loss, err := svc.trainEpoch()
		if err != nil {
			return svc.fail(fmt.Errorf("epoch %d: %w", epochCnt, err))
		}
		trainDur := time.Since(t0)

		t1 := time.Now()
		score, err := svc.validate()
		if err != nil {
			return svc.fail(fmt.Errorf("epoch %d: %w", epochCnt, err))
		}
		valDur := time.Since(t1)

		stop, saveBest := stopper.Evaluate(score)

		state := checkpoint.TrainingState{
			Epoch:      epochCnt,
			Loss:       loss,
			ModelState: svc.model.StateDict(),
			OptState:   svc.opt.StateDict(),
			SchedState: svc.sched.StateDict(),
		}
		if err := svc.ckpts.SaveLast(state); err != nil {
			return svc.fail(err)
		}
		if saveBest {
			if err := svc.ckpts.SaveBest(state); err != nil {
				return svc.fail(err)
			}
		}

		svc.observe(epochCnt, loss, score, saveBest, trainDur, valDur)

		if stop {
			svc.setState(StoppedEarly)
			svc.logger.Info("Stop at epoch", slog.Int("epoch", epochCnt))

			return svc.summary(), nil
		}
	}

	svc.setState(StoppedBudget)

	return svc.summary(), nil
}

func (svc *service) Status(_ context.Context) (Status, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return Status{
		RunID:     svc.cfg.RunID,
		State:     svc.state.String(),
		Epoch:     svc.epoch,
		LastLoss:  svc.lastLoss,
		BestScore: svc.bestScore,
	}, nil
}

func (svc *service) History(ctx context.Context, offset, limit uint64) ([]EpochRecord, uint64, error) {
	if svc.history == nil {
		return []EpochRecord{}, 0, nil
	}

	data, total, err := svc.history.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	records := make([]EpochRecord, 0, len(data))
	for i := range data {
		rec, ok := data[i].(EpochRecord)
		if !ok {
			return nil, 0, pkgerrors.ErrInvalidData
		}
		records = append(records, rec)
	}

	return records, total, nil
}

// initialize builds or restores the training state and returns the epoch to
// start from. Resume failures are fatal; the run never silently restarts
// from scratch.
func (svc *service) initialize() (int, error) {
	if svc.cfg.Resume == "" {
		return 0, nil
	}

	state, err := checkpoint.Load(svc.cfg.Resume)
	if err != nil {
		return 0, err
	}
	if err := svc.model.LoadStateDict(state.ModelState); err != nil {
		return 0, fmt.Errorf("%w: model state: %w", pkgerrors.ErrResume, err)
	}
	if err := svc.opt.LoadStateDict(state.OptState); err != nil {
		return 0, fmt.Errorf("%w: optimizer state: %w", pkgerrors.ErrResume, err)
	}
	if err := svc.sched.LoadStateDict(state.SchedState); err != nil {
		return 0, fmt.Errorf("%w: scheduler state: %w", pkgerrors.ErrResume, err)
	}

	svc.mu.Lock()
	svc.epoch = state.Epoch
	svc.lastLoss = state.Loss
	svc.mu.Unlock()

	svc.logger.Info("Resuming from checkpoint",
		slog.String("path", svc.cfg.Resume),
		slog.Int("epoch", state.Epoch))

	return state.Epoch, nil
}

func (svc *service) observe(epoch int, loss, score float64, savedBest bool, trainDur, valDur time.Duration) {
	svc.mu.Lock()
	svc.epoch = epoch
	svc.lastLoss = loss
	if savedBest && score > svc.bestScore {
		svc.bestScore = score
	}
	best := svc.bestScore
	svc.mu.Unlock()

	svc.metrics.Epochs.Add(1)
	svc.metrics.TrainLoss.Set(loss)
	svc.metrics.ValidationScore.Set(score)
	svc.metrics.BestScore.Set(best)

	if svc.history != nil {
		rec := EpochRecord{
			Epoch:            epoch,
			Loss:             loss,
			Score:            score,
			SavedBest:        savedBest,
			TrainDuration:    trainDur,
			ValidateDuration: valDur,
		}
		if err := svc.history.Create(context.Background(), strconv.Itoa(epoch), rec); err != nil {
			svc.logger.Warn("Failed to record epoch history", slog.Int("epoch", epoch), slog.Any("error", err))
		}
	}

	svc.logger.Debug("Epoch completed",
		slog.Int("epoch", epoch),
		slog.Float64("train_loss", loss),
		slog.Float64("val_map", score),
		slog.Bool("saved_best", savedBest),
		slog.String("dt_train", trainDur.String()),
		slog.String("dt_val", valDur.String()))
}

func (svc *service) fail(err error) (Summary, error) {
	svc.setState(Failed)

	return svc.summary(), err
}

func (svc *service) setState(state State) {
	svc.mu.Lock()
	svc.state = state
	svc.mu.Unlock()
}

func (svc *service) summary() Summary {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return Summary{
		State:     svc.state,
		Epoch:     svc.epoch,
		LastLoss:  svc.lastLoss,
		BestScore: svc.bestScore,
	}
}
