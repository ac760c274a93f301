// Package envconfig provides configuration structs for constructing
// quadruped environments with default physical and task parameters.
// Configurations are YAML serializable.
package envconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	env "github.com/samuelfneumann/goquad/environment"
	"github.com/samuelfneumann/goquad/environment/quadruped"
	"github.com/samuelfneumann/goquad/gait"
	ts "github.com/samuelfneumann/goquad/timestep"
)

// Default physical and episode parameters
const (
	DefaultTimeStep      float64 = 0.002
	DefaultActionRepeat  int     = 10
	DefaultMotorKp       float64 = 2.0
	DefaultMotorKd       float64 = 0.03
	DefaultDiscount      float64 = 0.99
	DefaultEpisodeCutoff uint    = 1000
)

// Config implements a specific configuration of the quadruped
// environment and its locomotion task
type Config struct {
	EpisodeCutoff uint    `yaml:"episode_cutoff"`
	Discount      float64 `yaml:"discount"`

	TimeStep     float64 `yaml:"time_step"`
	ActionRepeat int     `yaml:"action_repeat"`
	MotorKp      float64 `yaml:"motor_kp"`
	MotorKd      float64 `yaml:"motor_kd"`

	Render       bool `yaml:"render"`
	DrawFootPath bool `yaml:"draw_foot_path"`

	Gait    gait.Params       `yaml:"gait"`
	Weights quadruped.Weights `yaml:"weights"`
}

// DefaultConfig returns a Config with the default physical parameters,
// a forward-walking gait command, and the reference reward weights
func DefaultConfig() Config {
	return Config{
		EpisodeCutoff: DefaultEpisodeCutoff,
		Discount:      DefaultDiscount,
		TimeStep:      DefaultTimeStep,
		ActionRepeat:  DefaultActionRepeat,
		MotorKp:       DefaultMotorKp,
		MotorKd:       DefaultMotorKd,
		Gait: gait.Params{
			StepLength:      1.0,
			LateralFraction: 0.0,
			YawRate:         0.0,
			StepVelocity:    2.0,
		},
		Weights: quadruped.DefaultWeights(),
	}
}

// Load reads a Config from a YAML file, filling unset fields with
// defaults
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("load: could not parse %v: %v", path,
			err)
	}
	return config, nil
}

// Save writes the Config to a YAML file
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	task, err := quadruped.NewLocomote(gait.NewFixed(c.Gait), c.Weights,
		seed, int(c.EpisodeCutoff))
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}

	e, firstStep, err := quadruped.NewSimulated(task, c.Discount,
		c.TimeStep, c.ActionRepeat, c.MotorKp, c.MotorKd, c.Render,
		c.DrawFootPath)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}
	return e, firstStep, nil
}
