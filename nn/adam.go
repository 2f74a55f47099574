package nn

import (
	"fmt"
	"math"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

const (
	defBeta1   = 0.9
	defBeta2   = 0.999
	defEpsilon = 1e-8
)

// Adam implements adaptive moment estimation over a fixed parameter set.
// First and second moment vectors are part of its state dict so that a
// resumed run continues with identical updates.
type Adam struct {
	params []*Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	step   int
	moment map[string][]float64
	veloc  map[string][]float64
}

func NewAdam(params []*Parameter, lr float64) *Adam {
	moment := make(map[string][]float64, len(params))
	veloc := make(map[string][]float64, len(params))
	for _, p := range params {
		moment[p.Name] = make([]float64, len(p.Value))
		veloc[p.Name] = make([]float64, len(p.Value))
	}

	return &Adam{
		params: params,
		lr:     lr,
		beta1:  defBeta1,
		beta2:  defBeta2,
		eps:    defEpsilon,
		moment: moment,
		veloc:  veloc,
	}
}

func (a *Adam) Step() error {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for _, p := range a.params {
		m := a.moment[p.Name]
		v := a.veloc[p.Name]
		for i, g := range p.Grad {
			if math.IsNaN(g) || math.IsInf(g, 0) {
				return fmt.Errorf("gradient of %q at index %d: %w", p.Name, i, pkgerrors.ErrNonFinite)
			}
			m[i] = a.beta1*m[i] + (1-a.beta1)*g
			v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
			p.Value[i] -= a.lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.eps)
		}
	}

	return nil
}

func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

func (a *Adam) LearningRate() float64 {
	return a.lr
}

func (a *Adam) SetLearningRate(lr float64) {
	a.lr = lr
}

func (a *Adam) StateDict() StateDict {
	sd := StateDict{
		"step": {float64(a.step)},
		"lr":   {a.lr},
	}
	for name, m := range a.moment {
		sd["m."+name] = m
	}
	for name, v := range a.veloc {
		sd["v."+name] = v
	}

	return sd.Clone()
}

func (a *Adam) LoadStateDict(sd StateDict) error {
	step, ok := sd["step"]
	if !ok || len(step) != 1 {
		return fmt.Errorf("optimizer state missing step: %w", pkgerrors.ErrInvalidData)
	}
	lr, ok := sd["lr"]
	if !ok || len(lr) != 1 {
		return fmt.Errorf("optimizer state missing lr: %w", pkgerrors.ErrInvalidData)
	}

	for _, p := range a.params {
		m, ok := sd["m."+p.Name]
		if !ok || len(m) != len(p.Value) {
			return fmt.Errorf("optimizer state for %q first moment: %w", p.Name, pkgerrors.ErrInvalidData)
		}
		v, ok := sd["v."+p.Name]
		if !ok || len(v) != len(p.Value) {
			return fmt.Errorf("optimizer state for %q second moment: %w", p.Name, pkgerrors.ErrInvalidData)
		}
		copy(a.moment[p.Name], m)
		copy(a.veloc[p.Name], v)
	}

	a.step = int(step[0])
	a.lr = lr[0]

	return nil
}
