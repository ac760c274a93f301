package experiment

import (
	"time"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goquad/environment"
	"github.com/samuelfneumann/goquad/experiment/trackers"
	ts "github.com/samuelfneumann/goquad/timestep"
	"github.com/samuelfneumann/goquad/utils/progressbar"
)

// Policy selects actions given the most recent environmental timestep.
// Policies here are fixed controllers used to exercise an environment;
// learning agents live outside this module.
type Policy interface {
	SelectAction(t ts.TimeStep) *mat.VecDense
}

// Online is an Experiment that runs a Policy on an Environment online
type Online struct {
	env.Environment
	Policy
	maxSteps     uint
	currentSteps uint
	trackers     []trackers.Tracker
	progress     *progressbar.ProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given policy. The steps parameter determines how
// many timesteps the experiment is run for, and t determines what data
// is tracked and saved.
func NewOnline(e env.Environment, p Policy, steps uint,
	t ...trackers.Tracker) *Online {
	progress := progressbar.NewProgressBar(40, int(steps), time.Second, false)

	return &Online{e, p, steps, 0, t, progress}
}

// Register registers a Tracker with the Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() bool {
	step := o.Environment.Reset()
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++
		o.progress.Increment()

		action := o.SelectAction(step)
		step, _ = o.Environment.Step(action)

		o.track(step)
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() {
	o.progress.Display()
	defer o.progress.Close()

	ended := false
	for !ended {
		ended = o.RunEpisode()
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track caches the current timestep's data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}
