// Package nn defines the collaborator contracts the training orchestrator
// drives (model, optimizer, scheduler, criterion) together with baseline
// implementations sufficient to train an album classifier head end to end.
package nn

type Mode uint8

const (
	Train Mode = iota
	Eval
)

func (m Mode) String() string {
	switch m {
	case Train:
		return "train"
	case Eval:
		return "eval"
	default:
		return "unknown"
	}
}

// StateDict is an opaque named-vector mapping. The orchestration core and the
// checkpoint manager round-trip it without interpreting its contents.
type StateDict map[string][]float64

func (sd StateDict) Clone() StateDict {
	out := make(StateDict, len(sd))
	for k, v := range sd {
		cp := make([]float64, len(v))
		copy(cp, v)
		out[k] = cp
	}

	return out
}

// Parameter is a flat trainable vector with its accumulated gradient.
type Parameter struct {
	Name  string
	Value []float64
	Grad  []float64
}

func (p *Parameter) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// Model maps a batch of albums (per-image local features plus one global
// feature per album) to per-class logits. Backward accumulates parameter
// gradients from the loss gradient with respect to the logits of the most
// recent Forward call in Train mode.
type Model interface {
	Forward(local [][][]float64, global [][]float64) ([][]float64, error)
	Backward(dLogits [][]float64)
	SetMode(mode Mode)
	Parameters() []*Parameter
	StateDict() StateDict
	LoadStateDict(sd StateDict) error
}

// Optimizer applies accumulated gradients to the parameters it owns.
type Optimizer interface {
	Step() error
	ZeroGrad()
	LearningRate() float64
	SetLearningRate(lr float64)
	StateDict() StateDict
	LoadStateDict(sd StateDict) error
}

// Scheduler adjusts the optimizer learning rate once per epoch.
type Scheduler interface {
	Step()
	StateDict() StateDict
	LoadStateDict(sd StateDict) error
}

// Criterion computes the scalar loss and its gradient with respect to the
// logits.
type Criterion interface {
	Loss(logits, labels [][]float64) (float64, [][]float64, error)
}
