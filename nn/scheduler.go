package nn

import (
	"fmt"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// MultiStepLR decays the optimizer learning rate by gamma at each milestone
// epoch. Step is called once per completed epoch.
type MultiStepLR struct {
	opt        Optimizer
	milestones []int
	gamma      float64
	lastEpoch  int
}

func NewMultiStepLR(opt Optimizer, milestones []int, gamma float64) *MultiStepLR {
	ms := make([]int, len(milestones))
	copy(ms, milestones)

	return &MultiStepLR{
		opt:        opt,
		milestones: ms,
		gamma:      gamma,
	}
}

func (s *MultiStepLR) Step() {
	s.lastEpoch++
	for _, m := range s.milestones {
		if m == s.lastEpoch {
			s.opt.SetLearningRate(s.opt.LearningRate() * s.gamma)
		}
	}
}

func (s *MultiStepLR) StateDict() StateDict {
	ms := make([]float64, len(s.milestones))
	for i, m := range s.milestones {
		ms[i] = float64(m)
	}

	return StateDict{
		"last_epoch": {float64(s.lastEpoch)},
		"gamma":      {s.gamma},
		"milestones": ms,
	}
}

func (s *MultiStepLR) LoadStateDict(sd StateDict) error {
	last, ok := sd["last_epoch"]
	if !ok || len(last) != 1 {
		return fmt.Errorf("scheduler state missing last_epoch: %w", pkgerrors.ErrInvalidData)
	}
	s.lastEpoch = int(last[0])

	if gamma, ok := sd["gamma"]; ok && len(gamma) == 1 {
		s.gamma = gamma[0]
	}
	if ms, ok := sd["milestones"]; ok {
		s.milestones = make([]int, len(ms))
		for i, m := range ms {
			s.milestones[i] = int(m)
		}
	}

	return nil
}
