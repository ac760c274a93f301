package quadruped

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goquad/environment"
	"github.com/samuelfneumann/goquad/gait"
	ts "github.com/samuelfneumann/goquad/timestep"
	"github.com/samuelfneumann/goquad/utils/floatutils"
	"github.com/samuelfneumann/goquad/utils/lie"
)

const (
	// rewardMax is the ceiling of each Gaussian tracking bonus
	rewardMax float64 = 1.0

	// trackingScale is the fixed shaping divisor of the Gaussian
	// tracking terms. It is an empirically tuned constant, not a
	// configuration knob.
	trackingScale float64 = 0.1

	// FallenAngle is the roll or pitch magnitude beyond which the
	// robot is considered to have fallen over
	FallenAngle float64 = 0.9

	// MinBaseHeight is the base height below which the robot is
	// considered to have collapsed
	MinBaseHeight float64 = 0.08

	// startAngleBound is the +/- perturbation applied to each motor
	// angle in the starting pose
	startAngleBound float64 = 0.05
)

// Weights holds the seven reward-term weights of the Locomote task.
// All weights must be non-negative.
type Weights struct {
	Distance  float64 `yaml:"distance"`
	Rotation  float64 `yaml:"rotation"`
	Energy    float64 `yaml:"energy"`
	Shake     float64 `yaml:"shake"`
	Drift     float64 `yaml:"drift"`
	RollPitch float64 `yaml:"roll_pitch"`
	Rate      float64 `yaml:"rate"`
}

// DefaultWeights returns the reward weights used by the reference
// controller tuning
func DefaultWeights() Weights {
	return Weights{
		Distance:  1.0,
		Rotation:  1.0,
		Energy:    0.0005,
		Shake:     0.005,
		Drift:     2.0,
		RollPitch: 0.1,
		Rate:      0.1,
	}
}

func (w Weights) validate() error {
	for _, weight := range []float64{w.Distance, w.Rotation, w.Energy,
		w.Shake, w.Drift, w.RollPitch, w.Rate} {
		if weight < 0 {
			return fmt.Errorf("reward weights must be non-negative "+
				"\n\thave(%+v)", w)
		}
	}
	return nil
}

// Locomote implements the gait-tracking locomotion task. The reward
// combines Gaussian bonuses for tracking the commanded forward,
// lateral, and yaw-rate velocities with linear penalties for attitude
// error, body angular rate, and mechanical energy expenditure.
//
// Episodes end when the robot falls over, when an invalid value
// appears in the observation, or at the step limit.
type Locomote struct {
	environment.Starter

	env *Quadruped // Registered Quadruped environment

	// registered denotes whether or not a Quadruped environment has
	// been registered with the task
	registered bool

	gaitSource gait.Source
	weights    Weights

	invalidObs environment.Ender
	fallen     environment.Ender
	stepLimit  environment.Ender

	objectives [][]float64
}

// NewLocomote returns a new locomotion task reading commanded gait
// parameters from src. Starting poses perturb every motor angle
// uniformly around zero. The cutoff argument is the episodic step
// limit.
func NewLocomote(src gait.Source, w Weights, seed uint64,
	cutoff int) (environment.Task, error) {
	if src == nil {
		return nil, fmt.Errorf("newLocomote: gait source cannot be nil")
	}
	if err := w.validate(); err != nil {
		return nil, fmt.Errorf("newLocomote: %v", err)
	}

	bounds := make([]r1.Interval, NumMotors)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -startAngleBound, Max: startAngleBound}
	}

	attitude := []r1.Interval{
		{Min: -FallenAngle, Max: FallenAngle},
		{Min: -FallenAngle, Max: FallenAngle},
	}

	return &Locomote{
		Starter:    environment.NewUniformStarter(bounds, seed),
		gaitSource: src,
		weights:    w,
		invalidObs: environment.NewFunctionEnder(invalidObservation,
			ts.TerminalStateReached),
		fallen: environment.NewIntervalLimit(attitude, []int{0, 1},
			ts.TerminalStateReached),
		stepLimit: environment.NewStepLimit(cutoff),
	}, nil
}

// invalidObservation reports whether any observation feature is NaN or
// infinite, which indicates the physics simulation diverged
func invalidObservation(obs *mat.VecDense) bool {
	for i := 0; i < obs.Len(); i++ {
		if math.IsNaN(obs.AtVec(i)) || math.IsInf(obs.AtVec(i), 0) {
			return true
		}
	}
	return false
}

// register registers the Locomote task with a Quadruped environment.
// This is required since the task needs access to the robot's
// kinematic state to compute rewards and endings.
func (l *Locomote) register(env *Quadruped) {
	l.env = env
	l.registered = true
}

// reset clears the per-episode objectives log. Called by the
// environment on Reset.
func (l *Locomote) reset() {
	l.objectives = l.objectives[:0]
}

// Objectives returns the per-step reward components logged so far this
// episode. Each entry is (forward, energy, drift, shake), where the
// forward component already includes the lateral tracking bonus.
func (l *Locomote) Objectives() [][]float64 {
	return l.objectives
}

// AtGoal satisfies the environment.Task interface. Locomotion has no
// goal state, so this function prints an error message to standard
// error.
func (l *Locomote) AtGoal(state mat.Matrix) bool {
	fmt.Fprintf(os.Stderr, "atGoal: no goal state for Locomote task")
	return false
}

// GetReward returns the reward for the transition into nextState. The
// state and action arguments are unused: the reward is a function of
// the robot's body-frame twist, the commanded gait parameters, and the
// nextState observation.
func (l *Locomote) GetReward(state, action, nextState mat.Vector) float64 {
	if !l.registered {
		panic("getReward: no registered Quadruped environment")
	}

	params := l.gaitSource.Params()

	// The generator's nominal step velocity is halved twice, once for
	// the nominal-to-achieved scaling and once for duty cycle, to get
	// the expected steady-state body speed. The sign tracks the
	// intended direction of travel; a zero step length commands a
	// standstill.
	desiredVelocity := floatutils.Sign(params.StepLength) *
		params.StepVelocity / 4.0

	rob := l.env.rob

	// Re-express the previous step's world-frame twist in the body
	// frame through the adjoint of the inverted body-to-world
	// transform.
	pos := rob.BasePosition()
	roll, pitch, yaw := lie.EulerFromQuaternion(rob.BaseOrientation())

	r := lie.RPY(roll, pitch, yaw)
	tWorldBody := lie.RpToTrans(r, mat.NewVecDense(3, []float64{
		pos[0], pos[1], pos[2],
	}))
	tBodyWorld := lie.TransInv(tWorldBody)
	adj := lie.Adjoint(tBodyWorld)

	twist := make([]float64, 0, 6)
	twist = append(twist, rob.PrevAngularTwist()...)
	twist = append(twist, rob.PrevLinearTwist()...)
	vWorld := mat.NewVecDense(6, twist)

	var vBody mat.VecDense
	vBody.MulVec(adj, vWorld)

	// The model's body frame points forward along the negative axis,
	// so negate to recover positive-forward, positive-right.
	fwdSpeed := -vBody.AtVec(3)
	latSpeed := -vBody.AtVec(4)

	obs := nextState

	fwdError := fwdSpeed - desiredVelocity*math.Cos(params.LateralFraction)
	forwardReward := rewardMax * math.Exp(-fwdError*fwdError/trackingScale)

	latError := latSpeed - desiredVelocity*math.Sin(params.LateralFraction)
	lateralReward := rewardMax * math.Exp(-latError*latError/trackingScale)

	forwardReward += lateralReward

	yawError := obs.AtVec(4) - params.YawRate
	rotReward := rewardMax * math.Exp(-yawError*yawError/trackingScale)

	// Penalty for nonzero roll and pitch. Linear and unbounded so that
	// sustained tilt keeps accumulating penalty instead of saturating.
	rpReward := -(math.Abs(obs.AtVec(0)) + math.Abs(obs.AtVec(1)))

	// The z accelerometer this would penalise is unreliable on the IMU
	shakeReward := 0.0

	// Penalty for nonzero angular rate about the non-yaw axes
	rateReward := -(math.Abs(obs.AtVec(2)) + math.Abs(obs.AtVec(3)))

	// Reserved for future lateral-drift shaping
	driftReward := 0.0

	energyReward := -math.Abs(floats.Dot(rob.MotorTorques(),
		rob.MotorVelocities())) * rob.TimeStep()

	reward := l.weights.Distance*forwardReward +
		l.weights.Rotation*rotReward +
		l.weights.Energy*energyReward +
		l.weights.Drift*driftReward +
		l.weights.Shake*shakeReward +
		l.weights.RollPitch*rpReward +
		l.weights.Rate*rateReward

	l.objectives = append(l.objectives, []float64{forwardReward,
		energyReward, driftReward, shakeReward})

	return reward
}

// End checks if a timestep should be the last in the episode and
// adjusts the timestep accordingly. End returns whether the argument
// timestep is the last in the episode.
func (l *Locomote) End(t *ts.TimeStep) bool {
	if !l.registered {
		panic("end: no registered Quadruped environment to end")
	}

	if l.invalidObs.End(t) {
		return true
	}

	// Roll or pitch beyond the fallen angle means the robot tipped over
	if l.fallen.End(t) {
		return true
	}

	// The base height is not part of the observation, so the collapse
	// check reads the robot directly
	if l.env.rob.BasePosition()[2] < MinBaseHeight {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}

	return l.stepLimit.End(t)
}

// RewardSpec returns the reward specification for the task
func (l *Locomote) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{l.Min()})
	high := mat.NewVecDense(1, []float64{l.Max()})

	return environment.NewSpec(shape, environment.Reward, low, high,
		environment.Continuous)
}

// Max returns the maximum possible reward
func (l *Locomote) Max() float64 {
	return math.Inf(1.0)
}

// Min returns the minimum possible reward
func (l *Locomote) Min() float64 {
	return math.Inf(-1.0)
}
