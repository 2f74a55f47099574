package trainer

import (
	"fmt"
	"math"

	"github.com/ordanini/vigat/nn"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// trainEpoch runs one full pass over the training set: per batch zero-grad,
// forward, loss, backward and a single optimizer step. The scheduler advances
// once per epoch, after the pass. Returns the mean per-batch loss.
func (svc *service) trainEpoch() (float64, error) {
	svc.model.SetMode(nn.Train)

	batches, err := svc.trainSet.Batches(svc.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(batches) == 0 {
		return 0, fmt.Errorf("training set yields no batches: %w", pkgerrors.ErrInvalidData)
	}

	var sum float64
	for i, b := range batches {
		svc.opt.ZeroGrad()

		logits, err := svc.model.Forward(b.Local, b.Global)
		if err != nil {
			return 0, fmt.Errorf("forward on batch %d: %w", i, err)
		}

		loss, grad, err := svc.crit.Loss(logits, b.Labels)
		if err != nil {
			return 0, fmt.Errorf("loss on batch %d: %w", i, err)
		}
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return 0, fmt.Errorf("training loss on batch %d: %w", i, pkgerrors.ErrNonFinite)
		}

		svc.model.Backward(grad)
		if err := svc.opt.Step(); err != nil {
			return 0, fmt.Errorf("optimizer step on batch %d: %w", i, err)
		}

		sum += loss
	}

	svc.sched.Step()

	return sum / float64(len(batches)), nil
}

// validate scores the full validation set without touching model parameters.
// Batch outputs fill contiguous row ranges of a pre-allocated score matrix in
// loader order, so row i always lines up with label row i.
func (svc *service) validate() (float64, error) {
	svc.model.SetMode(nn.Eval)
	defer svc.model.SetMode(nn.Train)

	n := svc.valSet.Len()
	scores := make([][]float64, n)

	batches, err := svc.valSet.Batches(svc.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	gidx := 0
	for i, b := range batches {
		logits, err := svc.model.Forward(b.Local, b.Global)
		if err != nil {
			return 0, fmt.Errorf("forward on validation batch %d: %w", i, err)
		}
		if gidx+len(logits) > n {
			return 0, fmt.Errorf("validation batches exceed %d samples: %w", n, pkgerrors.ErrInvalidData)
		}
		for j, row := range logits {
			scores[gidx+j] = row
		}
		gidx += len(logits)
	}
	if gidx != n {
		return 0, fmt.Errorf("validation covered %d of %d samples: %w", gidx, n, pkgerrors.ErrInvalidData)
	}

	_, macro, err := svc.metricFn(svc.valSet.Labels(), scores)
	if err != nil {
		return 0, fmt.Errorf("validation metric: %w", err)
	}

	return macro, nil
}
