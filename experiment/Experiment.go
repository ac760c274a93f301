// Package experiment implements functionality for running a policy on
// an environment and tracking the data the interaction generates
package experiment

import (
	"github.com/samuelfneumann/goquad/experiment/trackers"
)

// Experiment runs a policy-environment interaction loop for some
// number of timesteps
type Experiment interface {
	// Run runs the entire experiment for all timesteps
	Run()

	// RunEpisode runs a single episode, returning whether the
	// experiment's timestep limit has been reached
	RunEpisode() bool

	// Save saves all the data cached by the experiment's Trackers
	Save()

	// Register registers a Tracker with the Experiment so that data
	// generated during the experiment can be tracked and saved
	Register(t trackers.Tracker)
}
