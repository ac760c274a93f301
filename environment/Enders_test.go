package environment

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	ts "github.com/samuelfneumann/goquad/timestep"
)

func midStep(number int, obs []float64) ts.TimeStep {
	return ts.New(ts.Mid, 0, 1, mat.NewVecDense(len(obs), obs), number)
}

func TestStepLimit(t *testing.T) {
	ender := NewStepLimit(3)

	step := midStep(2, []float64{0})
	if ender.End(&step) {
		t.Error("episode ended before the step limit")
	}
	if step.Last() {
		t.Error("step type modified before the step limit")
	}

	step = midStep(3, []float64{0})
	if !ender.End(&step) {
		t.Error("episode should end at the step limit")
	}
	if !step.Last() || step.EndType() != ts.Timeout {
		t.Errorf("wrong ending \n\twant(Last, %v) \n\thave(%v, %v)",
			ts.Timeout, step.StepType, step.EndType())
	}
}

func TestIntervalLimit(t *testing.T) {
	ender := NewIntervalLimit([]r1.Interval{{Min: -1, Max: 1}}, []int{1},
		ts.TerminalStateReached)

	step := midStep(1, []float64{5, 0.5})
	if ender.End(&step) {
		t.Error("feature within its interval should not end the episode")
	}

	step = midStep(2, []float64{0, 1.5})
	if !ender.End(&step) {
		t.Error("feature outside its interval should end the episode")
	}
	if step.EndType() != ts.TerminalStateReached {
		t.Errorf("wrong end type \n\twant(%v) \n\thave(%v)",
			ts.TerminalStateReached, step.EndType())
	}
}

func TestFunctionEnder(t *testing.T) {
	ender := NewFunctionEnder(func(obs *mat.VecDense) bool {
		return obs.AtVec(0) < 0
	}, ts.TerminalStateReached)

	step := midStep(1, []float64{1})
	if ender.End(&step) {
		t.Error("predicate is false, episode should continue")
	}

	step = midStep(2, []float64{-1})
	if !ender.End(&step) {
		t.Error("predicate is true, episode should end")
	}
}

func TestUniformStarterWithinBounds(t *testing.T) {
	bounds := []r1.Interval{
		{Min: -0.1, Max: 0.1},
		{Min: 2, Max: 3},
	}
	starter := NewUniformStarter(bounds, 1823)

	for i := 0; i < 100; i++ {
		start := starter.Start()
		if start.Len() != len(bounds) {
			t.Fatalf("wrong start vector length \n\twant(%v) \n\thave(%v)",
				len(bounds), start.Len())
		}
		for j, interval := range bounds {
			if start.AtVec(j) < interval.Min || start.AtVec(j) > interval.Max {
				t.Fatalf("start feature %v outside its bounds "+
					"\n\thave(%v)", j, start.AtVec(j))
			}
		}
	}
}
