// Package gait defines the command interface between an open-loop gait
// generator and the quadruped environment. The generator itself lives
// outside this module; the environment only ever reads its current
// parameters.
package gait

// Params is one snapshot of a gait generator's commanded parameters.
// StepLength and StepVelocity describe the commanded stride,
// LateralFraction is the direction angle of the desired horizontal
// velocity, and YawRate is the desired turning rate.
type Params struct {
	StepLength      float64 `yaml:"step_length"`
	LateralFraction float64 `yaml:"lateral_fraction"`
	YawRate         float64 `yaml:"yaw_rate"`
	StepVelocity    float64 `yaml:"step_velocity"`
}

// Source supplies the current gait parameters. Implementations own any
// internal state; callers must not mutate what they read.
type Source interface {
	Params() Params
}

// Fixed is a Source that always returns the same parameters. It is
// useful for constant-velocity reward shaping and for tests.
type Fixed struct {
	params Params
}

// NewFixed returns a Source that always reports p
func NewFixed(p Params) *Fixed {
	return &Fixed{params: p}
}

// Params returns the fixed gait parameters
func (f *Fixed) Params() Params {
	return f.params
}
