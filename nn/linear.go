package nn

import (
	"fmt"
	"math"
	"math/rand"

	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// LinearClassifier is the baseline album head: local features are mean-pooled
// over the album's images, concatenated with the global feature and projected
// to per-class logits. Graph-based models plug in behind the same Model
// interface.
type LinearClassifier struct {
	localDim  int
	globalDim int
	classes   int
	mode      Mode

	weight *Parameter
	bias   *Parameter

	lastInput [][]float64
}

func NewLinearClassifier(localDim, globalDim, numClasses int, seed int64) (*LinearClassifier, error) {
	if localDim <= 0 || globalDim < 0 || numClasses <= 0 {
		return nil, fmt.Errorf("linear classifier dims local=%d global=%d classes=%d: %w", localDim, globalDim, numClasses, pkgerrors.ErrInvalidData)
	}

	in := localDim + globalDim
	rng := rand.New(rand.NewSource(seed))
	scale := 1 / math.Sqrt(float64(in))

	weight := make([]float64, numClasses*in)
	for i := range weight {
		weight[i] = rng.NormFloat64() * scale
	}

	return &LinearClassifier{
		localDim:  localDim,
		globalDim: globalDim,
		classes:   numClasses,
		mode:      Train,
		weight: &Parameter{
			Name:  "weight",
			Value: weight,
			Grad:  make([]float64, numClasses*in),
		},
		bias: &Parameter{
			Name:  "bias",
			Value: make([]float64, numClasses),
			Grad:  make([]float64, numClasses),
		},
	}, nil
}

func (m *LinearClassifier) Forward(local [][][]float64, global [][]float64) ([][]float64, error) {
	if len(local) != len(global) {
		return nil, fmt.Errorf("local batch %d vs global batch %d: %w", len(local), len(global), pkgerrors.ErrInvalidData)
	}

	in := m.localDim + m.globalDim
	inputs := make([][]float64, len(local))
	logits := make([][]float64, len(local))
	for i := range local {
		x, err := m.pool(local[i], global[i])
		if err != nil {
			return nil, fmt.Errorf("album %d: %w", i, err)
		}
		inputs[i] = x

		out := make([]float64, m.classes)
		for c := 0; c < m.classes; c++ {
			sum := m.bias.Value[c]
			row := m.weight.Value[c*in : (c+1)*in]
			for d, v := range x {
				sum += row[d] * v
			}
			out[c] = sum
		}
		logits[i] = out
	}

	if m.mode == Train {
		m.lastInput = inputs
	}

	return logits, nil
}

// Backward accumulates dLoss/dW and dLoss/db from the logit gradient of the
// most recent training-mode Forward. dLogits carries any batch averaging.
func (m *LinearClassifier) Backward(dLogits [][]float64) {
	in := m.localDim + m.globalDim
	for i, dRow := range dLogits {
		if i >= len(m.lastInput) {
			return
		}
		x := m.lastInput[i]
		for c, d := range dRow {
			m.bias.Grad[c] += d
			gRow := m.weight.Grad[c*in : (c+1)*in]
			for j, v := range x {
				gRow[j] += d * v
			}
		}
	}
}

func (m *LinearClassifier) SetMode(mode Mode) {
	m.mode = mode
	if mode != Train {
		m.lastInput = nil
	}
}

func (m *LinearClassifier) Parameters() []*Parameter {
	return []*Parameter{m.weight, m.bias}
}

func (m *LinearClassifier) StateDict() StateDict {
	return StateDict{
		"weight": m.weight.Value,
		"bias":   m.bias.Value,
	}.Clone()
}

func (m *LinearClassifier) LoadStateDict(sd StateDict) error {
	for _, p := range []*Parameter{m.weight, m.bias} {
		v, ok := sd[p.Name]
		if !ok {
			return fmt.Errorf("state dict missing %q: %w", p.Name, pkgerrors.ErrInvalidData)
		}
		if len(v) != len(p.Value) {
			return fmt.Errorf("state dict %q has %d values, want %d: %w", p.Name, len(v), len(p.Value), pkgerrors.ErrInvalidData)
		}
		copy(p.Value, v)
	}

	return nil
}

func (m *LinearClassifier) pool(frames [][]float64, global []float64) ([]float64, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("album has no local features: %w", pkgerrors.ErrInvalidData)
	}
	if len(global) != m.globalDim {
		return nil, fmt.Errorf("global feature dim %d, want %d: %w", len(global), m.globalDim, pkgerrors.ErrInvalidData)
	}

	x := make([]float64, m.localDim+m.globalDim)
	for _, f := range frames {
		if len(f) != m.localDim {
			return nil, fmt.Errorf("local feature dim %d, want %d: %w", len(f), m.localDim, pkgerrors.ErrInvalidData)
		}
		for d, v := range f {
			x[d] += v
		}
	}
	inv := 1 / float64(len(frames))
	for d := 0; d < m.localDim; d++ {
		x[d] *= inv
	}
	copy(x[m.localDim:], global)

	return x, nil
}
