package trackers

import (
	"encoding/gob"
	"log"
	"os"

	ts "github.com/samuelfneumann/goquad/timestep"
)

// EpisodeLength tracks and saves the number of timesteps in each
// episode of an experiment
type EpisodeLength struct {
	currentEpisodeLength int
	episodeLengths       []float64
	filename             string
}

// NewEpisodeLength creates and returns a new *EpisodeLength Tracker
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track caches the episode length data of the current timestep
func (e *EpisodeLength) Track(step ts.TimeStep) {
	if step.First() {
		e.currentEpisodeLength = 0
		return
	}

	e.currentEpisodeLength++
	if step.Last() {
		e.episodeLengths = append(e.episodeLengths,
			float64(e.currentEpisodeLength))
	}
}

// EpisodeLengths returns the lengths of all episodes tracked so far
func (e *EpisodeLength) EpisodeLengths() []float64 {
	return e.episodeLengths
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() {
	file, err := os.Create(e.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(e.episodeLengths); err != nil {
		log.Fatalf("could not encode episode length data: %v", err)
	}
}
