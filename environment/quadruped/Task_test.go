package quadruped

import (
	"math"
	"testing"

	"github.com/samuelfneumann/goquad/gait"
	ts "github.com/samuelfneumann/goquad/timestep"
	"github.com/samuelfneumann/goquad/utils/lie"
)

const rewardTolerance float64 = 1e-9

// TestLocomoteTrackingReward steps a robot that moved at exactly the
// commanded speed and checks that both Gaussian tracking bonuses sit at
// their peak.
func TestLocomoteTrackingReward(t *testing.T) {
	rob := newStubRobot()

	// The body frame points forward along -x, so a world-frame base
	// velocity of (-1, 0, 0) with identity orientation is a forward
	// speed of exactly 1, matching stepVelocity / 4.
	rob.prevLin = []float64{-1.0, 0.0, 0.0}

	params := gait.Params{
		StepLength:      1.0,
		LateralFraction: 0.0,
		YawRate:         0.0,
		StepVelocity:    4.0,
	}
	env := newTestEnv(t, rob, params, Weights{Distance: 1.0, Rotation: 1.0},
		1000)

	step, last := env.Step(zeroAction())
	if last {
		t.Fatal("episode ended unexpectedly")
	}

	// Forward and lateral tracking contribute 1 each, rotation
	// tracking another 1
	if math.Abs(step.Reward-3.0) > rewardTolerance {
		t.Errorf("wrong reward for perfect tracking \n\twant(3.0) "+
			"\n\thave(%v)", step.Reward)
	}

	objectives := env.Task.(*Locomote).Objectives()
	if len(objectives) != 1 {
		t.Fatalf("wrong objectives log length \n\twant(1) \n\thave(%v)",
			len(objectives))
	}
	want := []float64{2.0, 0.0, 0.0, 0.0}
	for i := range want {
		if math.Abs(objectives[0][i]-want[i]) > rewardTolerance {
			t.Errorf("unexpected objectives entry %v \n\twant(%v) "+
				"\n\thave(%v)", i, want[i], objectives[0][i])
		}
	}
}

// TestLocomoteZeroStepLength checks that a zero step length commands a
// standstill rather than inheriting the sign of positive zero.
func TestLocomoteZeroStepLength(t *testing.T) {
	rob := newStubRobot() // at rest

	params := gait.Params{
		StepLength:   0.0,
		StepVelocity: 4.0,
	}
	env := newTestEnv(t, rob, params, Weights{Distance: 1.0, Rotation: 1.0},
		1000)

	step, _ := env.Step(zeroAction())

	// A resting robot tracks a standstill command perfectly. If the
	// zero step length incorrectly produced a desired speed of +1, the
	// forward bonus would collapse to exp(-10).
	if math.Abs(step.Reward-3.0) > rewardTolerance {
		t.Errorf("zero step length should command a standstill "+
			"\n\twant(3.0) \n\thave(%v)", step.Reward)
	}
}

func TestLocomoteTrackingFallsOffWithError(t *testing.T) {
	params := gait.Params{
		StepLength:   1.0,
		StepVelocity: 4.0,
	}

	prev := math.Inf(1)
	for _, speed := range []float64{1.0, 0.8, 0.5, 0.0} {
		rob := newStubRobot()
		rob.prevLin = []float64{-speed, 0.0, 0.0}

		env := newTestEnv(t, rob, params, Weights{Distance: 1.0}, 1000)
		step, _ := env.Step(zeroAction())

		if step.Reward >= prev {
			t.Errorf("tracking bonus should fall off with speed error "+
				"\n\thave(%v) at speed %v, previously %v", step.Reward,
				speed, prev)
		}
		prev = step.Reward
	}
}

func TestLocomoteEnergyPenalty(t *testing.T) {
	rob := newStubRobot()
	for i := range rob.torques {
		rob.torques[i] = 1.0
		rob.vels[i] = 2.0
	}

	env := newTestEnv(t, rob, gait.Params{}, Weights{Energy: 1.0}, 1000)

	// Motor torques and velocities survive the reset since the stub
	// only rewrites angles, so the energy term sees |8 * 1 * 2| * dt.
	step, _ := env.Step(zeroAction())

	want := -math.Abs(8.0*1.0*2.0) * rob.timeStep
	if math.Abs(step.Reward-want) > rewardTolerance {
		t.Errorf("wrong energy penalty \n\twant(%v) \n\thave(%v)", want,
			step.Reward)
	}

	objectives := env.Task.(*Locomote).Objectives()
	if math.Abs(objectives[0][1]-want) > rewardTolerance {
		t.Errorf("energy component not logged \n\twant(%v) \n\thave(%v)",
			want, objectives[0][1])
	}
}

func TestLocomoteAttitudePenalty(t *testing.T) {
	prev := math.Inf(1)
	for _, roll := range []float64{0.0, 0.1, 0.3, 0.6} {
		rob := newStubRobot()
		rob.orn = lie.QuaternionFromRPY(roll, 0.0, 0.0)

		env := newTestEnv(t, rob, gait.Params{}, Weights{RollPitch: 1.0},
			1000)
		step, _ := env.Step(zeroAction())

		if roll == 0.0 && math.Abs(step.Reward) > rewardTolerance {
			t.Errorf("level attitude should carry no penalty "+
				"\n\thave(%v)", step.Reward)
		}
		if step.Reward >= prev && roll > 0.0 {
			t.Errorf("attitude penalty should grow with tilt "+
				"\n\thave(%v) at roll %v, previously %v", step.Reward,
				roll, prev)
		}
		prev = step.Reward
	}
}

func TestLocomoteRatePenalty(t *testing.T) {
	rob := newStubRobot()
	rob.angVel = []float64{0.2, -0.3, 5.0}

	env := newTestEnv(t, rob, gait.Params{}, Weights{Rate: 1.0}, 1000)
	step, _ := env.Step(zeroAction())

	// Only the roll and pitch rates are penalised; the yaw rate is a
	// tracking target, not a disturbance.
	want := -(0.2 + 0.3)
	if math.Abs(step.Reward-want) > rewardTolerance {
		t.Errorf("wrong rate penalty \n\twant(%v) \n\thave(%v)", want,
			step.Reward)
	}
}

func TestLocomoteObjectivesCleared(t *testing.T) {
	env := newTestEnv(t, newStubRobot(), gait.Params{}, DefaultWeights(),
		1000)

	env.Step(zeroAction())
	env.Step(zeroAction())
	if n := len(env.Task.(*Locomote).Objectives()); n != 2 {
		t.Fatalf("wrong objectives log length \n\twant(2) \n\thave(%v)", n)
	}

	env.Reset()
	if n := len(env.Task.(*Locomote).Objectives()); n != 0 {
		t.Errorf("objectives log not cleared on reset \n\thave(%v)", n)
	}
}

func TestLocomoteEndsWhenFallen(t *testing.T) {
	rob := newStubRobot()
	env := newTestEnv(t, rob, gait.Params{}, Weights{}, 1000)

	rob.orn = lie.QuaternionFromRPY(FallenAngle+0.3, 0.0, 0.0)
	step, last := env.Step(zeroAction())

	if !last || !step.Last() {
		t.Fatal("episode should end when the robot falls over")
	}
	if step.EndType() != ts.TerminalStateReached {
		t.Errorf("wrong end type \n\twant(%v) \n\thave(%v)",
			ts.TerminalStateReached, step.EndType())
	}
}

func TestLocomoteEndsWhenCollapsed(t *testing.T) {
	rob := newStubRobot()
	env := newTestEnv(t, rob, gait.Params{}, Weights{}, 1000)

	rob.pos = []float64{0.0, 0.0, MinBaseHeight / 2}
	_, last := env.Step(zeroAction())

	if !last {
		t.Error("episode should end when the base collapses")
	}
}

func TestLocomoteEndsAtStepLimit(t *testing.T) {
	env := newTestEnv(t, newStubRobot(), gait.Params{}, Weights{}, 2)

	if _, last := env.Step(zeroAction()); last {
		t.Fatal("episode ended before the step limit")
	}

	step, last := env.Step(zeroAction())
	if !last {
		t.Fatal("episode should end at the step limit")
	}
	if step.EndType() != ts.Timeout {
		t.Errorf("wrong end type \n\twant(%v) \n\thave(%v)", ts.Timeout,
			step.EndType())
	}
}

func TestNewLocomoteValidation(t *testing.T) {
	if _, err := NewLocomote(nil, DefaultWeights(), 1823, 1000); err == nil {
		t.Error("expected error for nil gait source")
	}

	w := DefaultWeights()
	w.Drift = -1.0
	if _, err := NewLocomote(gait.NewFixed(gait.Params{}), w, 1823,
		1000); err == nil {
		t.Error("expected error for negative reward weight")
	}
}
