// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/goquad/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether a timestep is the last in an episode. An
// Ender that ends the episode modifies the argument TimeStep in place,
// setting its StepType to timestep.Last and its EndType to the
// appropriate ending type.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for a state, action, next state
	// transition
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether the argument state is a goal state
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable rewards
	Min() float64
	Max() float64

	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a Task to
// complete
type Environment interface {
	Task

	// Reset resets the environment between episodes
	Reset() ts.TimeStep

	// Step takes one environmental step given an action, returning the
	// next timestep and whether it is the last in the episode
	Step(action *mat.VecDense) (ts.TimeStep, bool)

	// CurrentTimeStep returns the last timestep generated by the
	// environment
	CurrentTimeStep() ts.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
