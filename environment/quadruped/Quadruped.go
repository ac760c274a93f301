// Package quadruped implements a locomotion environment for a
// simulated quadruped robot. The agent commands a desired angle for
// each motor, and the reward tracks how well the resulting body motion
// follows the commanded gait parameters while penalising attitude
// error and energy expenditure.
package quadruped

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goquad/environment"
	"github.com/samuelfneumann/goquad/environment/quadruped/internal/odeenv"
	ts "github.com/samuelfneumann/goquad/timestep"
	"github.com/samuelfneumann/goquad/utils/lie"
	"github.com/samuelfneumann/goquad/utils/matutils"
)

const (
	NumLegs      int = 4
	MotorsPerLeg int = 2
	NumMotors    int = NumLegs * MotorsPerLeg

	// MotorAngleBound is the +/- bound on commanded motor angles.
	// Raw actions are clipped to this range by the default action
	// transform.
	MotorAngleBound float64 = math.Pi / 3

	// imuObservations is the number of leading observation features
	// read from the IMU: roll, pitch, and the three body angular
	// rates. The fifth entry is the yaw rate.
	imuObservations int = 5
)

// Robot is the physics collaborator the environment drives. It owns
// the simulated rigid bodies and motors; the environment only reads
// kinematic state and forwards motor commands.
//
// BaseOrientation returns a unit quaternion in (x, y, z, w) order.
// PrevLinearTwist and PrevAngularTwist return the world-frame base
// velocities recorded at the start of the previous actuation call.
// TimeStep is the per-substep simulation duration, ControlTimeStep the
// duration of one full actuation call.
type Robot interface {
	BasePosition() []float64
	BaseOrientation() []float64
	BaseAngularVelocity() []float64
	PrevLinearTwist() []float64
	PrevAngularTwist() []float64

	NumMotors() int
	MotorAngles() []float64
	MotorVelocities() []float64
	MotorTorques() []float64
	FootPositions() [][]float64

	TimeStep() float64
	ControlTimeStep() float64

	Apply(commands []float64) error
	Reset(motorAngles []float64) error
}

// ActionTransform maps a raw policy action vector to the motor command
// vector forwarded to the Robot. The returned vector must have one
// entry per motor; the length of the raw action is the caller's
// responsibility and is not validated here.
type ActionTransform func(action *mat.VecDense) *mat.VecDense

// ClipToMotorBounds is the default ActionTransform. It clips each
// commanded angle to [-MotorAngleBound, MotorAngleBound] without
// modifying the argument vector.
func ClipToMotorBounds(action *mat.VecDense) *mat.VecDense {
	clipped := mat.VecDenseCopyOf(action)
	matutils.VecClip(clipped, -MotorAngleBound, MotorAngleBound)
	return clipped
}

// Camera is the debug visualiser camera. The environment re-targets it
// at the robot base every rendered step but never touches the
// user-set yaw, pitch, or distance.
type Camera struct {
	Yaw      float64
	Pitch    float64
	Distance float64
	Target   []float64
}

// Quadruped implements environment.Environment for a quadruped robot
type Quadruped struct {
	environment.Task

	rob       Robot
	transform ActionTransform
	discount  float64
	obsLen    int

	render        bool
	lastFrameTime time.Time
	camera        Camera

	drawFootPath bool
	footPath     [][][]float64 // one trace per leg

	lastBasePosition    []float64
	lastBaseOrientation []float64
	stepCount           int

	currentTimeStep ts.TimeStep
}

// New returns a new Quadruped environment driving the argument Robot.
// If t is a *Locomote task, the task is registered with the returned
// environment so that it can read the robot's kinematic state when
// computing rewards.
func New(rob Robot, t environment.Task, discount float64, render,
	drawFootPath bool) (environment.Environment, ts.TimeStep, error) {
	if discount < 0 || discount > 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("newQuadruped: discount must "+
			"be in [0, 1] \n\thave(%v)", discount)
	}

	q := &Quadruped{
		Task:         t,
		rob:          rob,
		transform:    ClipToMotorBounds,
		discount:     discount,
		obsLen:       imuObservations + 3*rob.NumMotors(),
		render:       render,
		drawFootPath: drawFootPath,
		camera: Camera{
			Yaw:      0.0,
			Pitch:    -30.0,
			Distance: 1.0,
			Target:   rob.BasePosition(),
		},
	}

	if task, ok := t.(*Locomote); ok {
		task.register(q)
	}

	firstStep := q.Reset()
	return q, firstStep, nil
}

// NewSimulated returns a Quadruped environment backed by the built-in
// rigid-body simulation. timeStep is the per-substep duration and
// actionRepeat the number of substeps per control interval; kp and kd
// are the motor PD gains.
func NewSimulated(t environment.Task, discount, timeStep float64,
	actionRepeat int, kp, kd float64, render,
	drawFootPath bool) (environment.Environment, ts.TimeStep, error) {
	rob, err := odeenv.New(timeStep, actionRepeat, kp, kd)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newSimulated: %v", err)
	}
	return New(rob, t, discount, render, drawFootPath)
}

// SetActionTransform replaces the default action-to-motor-command
// transform
func (q *Quadruped) SetActionTransform(f ActionTransform) {
	q.transform = f
}

// CurrentTimeStep returns the last timestep generated by the
// environment
func (q *Quadruped) CurrentTimeStep() ts.TimeStep {
	return q.currentTimeStep
}

// StepCount returns the number of Step calls since the last Reset
func (q *Quadruped) StepCount() int {
	return q.stepCount
}

// LastBasePosition returns the base position snapshotted at the start
// of the most recent Step call
func (q *Quadruped) LastBasePosition() []float64 {
	return q.lastBasePosition
}

// LastBaseOrientation returns the base orientation snapshotted at the
// start of the most recent Step call
func (q *Quadruped) LastBaseOrientation() []float64 {
	return q.lastBaseOrientation
}

// Camera returns the current debug camera
func (q *Quadruped) Camera() Camera {
	return q.camera
}

// SetCamera sets the user-controlled portion of the debug camera
func (q *Quadruped) SetCamera(yaw, pitch, distance float64) {
	q.camera.Yaw = yaw
	q.camera.Pitch = pitch
	q.camera.Distance = distance
}

// Reset resets the environment and returns the first timestep of the
// new episode
func (q *Quadruped) Reset() ts.TimeStep {
	start := q.Start()
	if err := q.rob.Reset(start.RawVector().Data); err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}

	if task, ok := q.Task.(*Locomote); ok {
		task.reset()
	}

	q.stepCount = 0
	q.footPath = make([][][]float64, NumLegs)
	q.lastBasePosition = q.rob.BasePosition()
	q.lastBaseOrientation = q.rob.BaseOrientation()
	q.lastFrameTime = time.Now()

	firstStep := ts.New(ts.First, 0, q.discount, q.getObs(), 0)
	q.currentTimeStep = firstStep
	return firstStep
}

// Step advances the environment by one control interval. The action is
// a desired angle for each motor; wrong-length or out-of-range actions
// are a caller contract violation and are not validated here beyond
// clipping by the action transform.
func (q *Quadruped) Step(action *mat.VecDense) (ts.TimeStep, bool) {
	q.lastBasePosition = q.rob.BasePosition()
	q.lastBaseOrientation = q.rob.BaseOrientation()

	if q.render {
		// Pace the loop to wall-clock time, otherwise the
		// visualisation plays like a fast-forward video.
		spent := time.Since(q.lastFrameTime)
		q.lastFrameTime = time.Now()
		if sleep := q.controlDuration() - spent; sleep > 0 {
			time.Sleep(sleep)
		}
		q.camera.Target = q.rob.BasePosition()
	}

	command := q.transform(action)
	if err := q.rob.Apply(command.RawVector().Data); err != nil {
		panic(fmt.Sprintf("step: %v", err))
	}

	obs := q.getObs()
	reward := q.GetReward(q.currentTimeStep.Observation, action, obs)
	step := ts.New(ts.Mid, reward, q.discount, obs,
		q.currentTimeStep.Number+1)
	q.End(&step)
	q.stepCount++

	if q.drawFootPath {
		q.traceFeet()
	}

	q.currentTimeStep = step
	return step, step.Last()
}

// getObs builds the observation vector: roll, pitch, the three body
// angular rates (with the yaw rate fifth), then per-motor angles,
// velocities, and torques.
func (q *Quadruped) getObs() *mat.VecDense {
	roll, pitch, _ := lie.EulerFromQuaternion(q.rob.BaseOrientation())
	rates := q.rob.BaseAngularVelocity()

	obs := make([]float64, 0, q.obsLen)
	obs = append(obs, roll, pitch, rates[0], rates[1], rates[2])
	obs = append(obs, q.rob.MotorAngles()...)
	obs = append(obs, q.rob.MotorVelocities()...)
	obs = append(obs, q.rob.MotorTorques()...)

	if len(obs) != q.obsLen {
		panic(fmt.Sprintf("getObs: illegal number of state observations "+
			"\n\twant(%v) \n\thave(%v)", q.obsLen, len(obs)))
	}
	return mat.NewVecDense(q.obsLen, obs)
}

// controlDuration returns the wall-clock duration of one control
// interval
func (q *Quadruped) controlDuration() time.Duration {
	return time.Duration(q.rob.ControlTimeStep() * float64(time.Second))
}

// DiscountSpec returns the discount specification of the environment
func (q *Quadruped) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bounds := mat.NewVecDense(1, []float64{q.discount})

	return environment.NewSpec(shape, environment.Discount, bounds, bounds,
		environment.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (q *Quadruped) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(q.obsLen, nil)

	low := make([]float64, q.obsLen)
	high := make([]float64, q.obsLen)
	for i := range high {
		low[i] = math.Inf(-1.0)
		high[i] = math.Inf(1.0)
	}
	// Roll and pitch are Euler angles
	low[0], high[0] = -math.Pi, math.Pi
	low[1], high[1] = -math.Pi/2, math.Pi/2

	return environment.NewSpec(shape, environment.Observation,
		mat.NewVecDense(q.obsLen, low), mat.NewVecDense(q.obsLen, high),
		environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (q *Quadruped) ActionSpec() environment.Spec {
	n := q.rob.NumMotors()
	shape := mat.NewVecDense(n, nil)

	low := make([]float64, n)
	high := make([]float64, n)
	for i := range high {
		low[i] = -MotorAngleBound
		high[i] = MotorAngleBound
	}

	return environment.NewSpec(shape, environment.Action,
		mat.NewVecDense(n, low), mat.NewVecDense(n, high),
		environment.Continuous)
}

// String converts the environment to a string representation
func (q *Quadruped) String() string {
	pos := q.rob.BasePosition()
	roll, pitch, yaw := lie.EulerFromQuaternion(q.rob.BaseOrientation())

	return fmt.Sprintf("Quadruped  |  base: (%.3f, %.3f, %.3f)  |  "+
		"rpy: (%.3f, %.3f, %.3f)  |  step: %v", pos[0], pos[1], pos[2],
		roll, pitch, yaw, q.stepCount)
}
