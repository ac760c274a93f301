package experiment

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/samuelfneumann/goquad/environment"
	ts "github.com/samuelfneumann/goquad/timestep"
)

// UniformRandom is a Policy that samples every action dimension
// uniformly from the environment's action bounds
type UniformRandom struct {
	dims int
	rng  []distuv.Uniform
}

// NewUniformRandom returns a new UniformRandom policy for the action
// space of e
func NewUniformRandom(e env.Environment, seed uint64) *UniformRandom {
	spec := e.ActionSpec()
	dims := spec.Shape.Len()

	src := rand.NewSource(seed)
	rng := make([]distuv.Uniform, dims)
	for i := range rng {
		rng[i] = distuv.Uniform{
			Min: spec.LowerBound.AtVec(i),
			Max: spec.UpperBound.AtVec(i),
			Src: src,
		}
	}

	return &UniformRandom{dims: dims, rng: rng}
}

// SelectAction samples a uniformly random action
func (u *UniformRandom) SelectAction(t ts.TimeStep) *mat.VecDense {
	action := mat.NewVecDense(u.dims, nil)
	for i := range u.rng {
		action.SetVec(i, u.rng[i].Rand())
	}
	return action
}

// Constant is a Policy that always selects the same action, e.g. a
// standing pose
type Constant struct {
	action *mat.VecDense
}

// NewConstant returns a Policy that always selects action
func NewConstant(action *mat.VecDense) *Constant {
	return &Constant{action: action}
}

// SelectAction returns the constant action
func (c *Constant) SelectAction(t ts.TimeStep) *mat.VecDense {
	out := mat.NewVecDense(c.action.Len(), nil)
	out.CopyVec(c.action)
	return out
}

// Sinusoid is a Policy that drives every action dimension with a
// phase-offset sine wave. It produces a crude trotting motion on the
// quadruped and is useful for smoke-testing environments without a
// trained agent.
type Sinusoid struct {
	dims      int
	amplitude float64
	period    float64
}

// NewSinusoid returns a new Sinusoid policy with the given amplitude
// and period (in timesteps) over dims action dimensions
func NewSinusoid(dims int, amplitude, period float64) *Sinusoid {
	return &Sinusoid{dims: dims, amplitude: amplitude, period: period}
}

// SelectAction returns the sinusoidal action for the timestep's number
func (s *Sinusoid) SelectAction(t ts.TimeStep) *mat.VecDense {
	action := mat.NewVecDense(s.dims, nil)
	phase := 2 * math.Pi * float64(t.Number) / s.period
	for i := 0; i < s.dims; i++ {
		// Alternate phase between diagonal leg pairs
		offset := math.Pi * float64(i%2)
		action.SetVec(i, s.amplitude*math.Sin(phase+offset))
	}
	return action
}
