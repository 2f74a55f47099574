package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordanini/vigat/nn"
	pkgerrors "github.com/ordanini/vigat/pkg/errors"
)

// quadParam returns a single parameter with the gradient of f(x) = sum(x^2)
// pre-filled, so one Step moves it toward the origin.
func quadParam(values []float64) *nn.Parameter {
	grad := make([]float64, len(values))
	for i, v := range values {
		grad[i] = 2 * v
	}

	return &nn.Parameter{Name: "x", Value: values, Grad: grad}
}

func TestAdamDescendsQuadratic(t *testing.T) {
	t.Parallel()

	p := &nn.Parameter{Name: "x", Value: []float64{3, -2, 0.5}, Grad: make([]float64, 3)}
	opt := nn.NewAdam([]*nn.Parameter{p}, 0.1)

	objective := func() float64 {
		var sum float64
		for _, v := range p.Value {
			sum += v * v
		}

		return sum
	}

	prev := objective()
	for i := 0; i < 50; i++ {
		opt.ZeroGrad()
		for d, v := range p.Value {
			p.Grad[d] = 2 * v
		}
		require.NoError(t, opt.Step())
	}

	assert.Less(t, objective(), prev)
	for _, v := range p.Value {
		assert.Less(t, math.Abs(v), 1.0)
	}
}

func TestAdamRejectsNonFiniteGradient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		grad float64
	}{
		{name: "nan gradient", grad: math.NaN()},
		{name: "positive infinity", grad: math.Inf(1)},
		{name: "negative infinity", grad: math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &nn.Parameter{Name: "x", Value: []float64{1}, Grad: []float64{tt.grad}}
			opt := nn.NewAdam([]*nn.Parameter{p}, 0.1)
			assert.ErrorIs(t, opt.Step(), pkgerrors.ErrNonFinite)
		})
	}
}

func TestAdamStateRoundTripIdenticalUpdates(t *testing.T) {
	t.Parallel()

	pa := quadParam([]float64{2, -1})
	pb := quadParam([]float64{2, -1})
	a := nn.NewAdam([]*nn.Parameter{pa}, 0.05)
	b := nn.NewAdam([]*nn.Parameter{pb}, 0.05)

	// Advance the first optimizer a few steps, then clone its state into the
	// second. From there both must produce bit-identical trajectories.
	for i := 0; i < 3; i++ {
		for d, v := range pa.Value {
			pa.Grad[d] = 2 * v
		}
		require.NoError(t, a.Step())
	}
	copy(pb.Value, pa.Value)
	require.NoError(t, b.LoadStateDict(a.StateDict()))

	for i := 0; i < 5; i++ {
		for d, v := range pa.Value {
			pa.Grad[d] = 2 * v
		}
		for d, v := range pb.Value {
			pb.Grad[d] = 2 * v
		}
		require.NoError(t, a.Step())
		require.NoError(t, b.Step())
		assert.Equal(t, pa.Value, pb.Value, "step %d diverged", i)
	}
}

func TestAdamLoadStateDictValidation(t *testing.T) {
	t.Parallel()

	p := quadParam([]float64{1, 2})
	opt := nn.NewAdam([]*nn.Parameter{p}, 0.1)
	good := opt.StateDict()

	tests := []struct {
		name   string
		mutate func(nn.StateDict)
	}{
		{name: "missing step", mutate: func(sd nn.StateDict) { delete(sd, "step") }},
		{name: "missing lr", mutate: func(sd nn.StateDict) { delete(sd, "lr") }},
		{name: "missing first moment", mutate: func(sd nn.StateDict) { delete(sd, "m.x") }},
		{name: "moment length mismatch", mutate: func(sd nn.StateDict) { sd["v.x"] = []float64{0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sd := good.Clone()
			tt.mutate(sd)
			assert.ErrorIs(t, opt.LoadStateDict(sd), pkgerrors.ErrInvalidData)
		})
	}
}
