// Package odeenv wraps the Open Dynamics Engine to provide the
// rigid-body simulation behind the quadruped environment. The robot is
// a box torso with four two-segment legs; each hip and knee is a
// torque-driven hinge under PD position control.
package odeenv

import (
	"fmt"
	"math"

	"github.com/ianremmler/ode"

	"github.com/samuelfneumann/goquad/utils/floatutils"
	"github.com/samuelfneumann/goquad/utils/lie"
)

func init() {
	ode.Init(0, ode.AllAFlag)
}

const (
	NumLegs      int = 4
	MotorsPerLeg int = 2
	NumMotors    int = NumLegs * MotorsPerLeg

	// MaxTorque bounds the torque a single motor can exert
	MaxTorque float64 = 8.0

	Gravity float64 = -9.81

	bodyDensity float64 = 8.0
	legDensity  float64 = 4.0

	bodyLx float64 = 0.50
	bodyLy float64 = 0.25
	bodyLz float64 = 0.10

	legRadius float64 = 0.02
	upperLen  float64 = 0.14
	lowerLen  float64 = 0.14

	baseHeight float64 = 0.30

	hipX float64 = 0.20
	hipY float64 = 0.14

	groundFriction float64 = 1.5

	// jointStop is the mechanical +/- limit on each hinge
	jointStop float64 = math.Pi / 2
)

// OdeEnv is the simulated quadruped. It implements the environment's
// Robot interface.
type OdeEnv struct {
	world      ode.World
	space      ode.HashSpace
	jointGroup ode.JointGroup
	plane      ode.Geom

	body     ode.Body
	bodyGeom ode.Geom

	legBodies [2 * NumLegs]ode.Body // upper legs first, then lower
	legGeoms  [2 * NumLegs]ode.Geom
	joints    [NumMotors]ode.HingeJoint

	timeStep     float64
	actionRepeat int
	kp, kd       float64

	prevLinTwist []float64
	prevAngTwist []float64
	torques      []float64

	built bool
}

// New returns a new simulated quadruped. timeStep is the duration of a
// single physics substep and actionRepeat the number of substeps per
// actuation call; kp and kd are the PD motor gains.
func New(timeStep float64, actionRepeat int, kp, kd float64) (*OdeEnv,
	error) {
	if timeStep <= 0 {
		return nil, fmt.Errorf("newOdeEnv: timeStep must be positive "+
			"\n\thave(%v)", timeStep)
	}
	if actionRepeat < 1 {
		return nil, fmt.Errorf("newOdeEnv: actionRepeat must be at least 1 "+
			"\n\thave(%v)", actionRepeat)
	}

	o := &OdeEnv{
		world:        ode.NewWorld(),
		space:        ode.NilSpace().NewHashSpace(),
		jointGroup:   ode.NewJointGroup(10000),
		timeStep:     timeStep,
		actionRepeat: actionRepeat,
		kp:           kp,
		kd:           kd,
		prevLinTwist: make([]float64, 3),
		prevAngTwist: make([]float64, 3),
		torques:      make([]float64, NumMotors),
	}

	o.world.SetGravity(ode.V3(0, 0, Gravity))
	o.plane = o.space.NewPlane(ode.V4(0, 0, 1, 0))

	if err := o.Reset(make([]float64, NumMotors)); err != nil {
		return nil, fmt.Errorf("newOdeEnv: %v", err)
	}
	return o, nil
}

// Reset tears down and rebuilds the robot with the given initial hip
// and knee angles, ordered (hip, knee) per leg.
func (o *OdeEnv) Reset(motorAngles []float64) error {
	if len(motorAngles) != NumMotors {
		return fmt.Errorf("reset: invalid number of motor angles "+
			"\n\thave(%v) \n\twant(%v)", len(motorAngles), NumMotors)
	}

	o.destroyRobot()
	o.buildRobot(motorAngles)

	for i := range o.prevLinTwist {
		o.prevLinTwist[i] = 0
		o.prevAngTwist[i] = 0
	}
	for i := range o.torques {
		o.torques[i] = 0
	}
	return nil
}

func (o *OdeEnv) destroyRobot() {
	if !o.built {
		return
	}
	for _, j := range o.joints {
		j.Destroy()
	}
	for _, g := range o.legGeoms {
		g.Destroy()
	}
	for _, b := range o.legBodies {
		b.Destroy()
	}
	o.bodyGeom.Destroy()
	o.body.Destroy()
	o.built = false
}

// buildRobot creates the torso, legs, and hinges. Leg segments are
// capsules along their local z axis, placed according to the initial
// joint angles so that the pose is consistent before the first step.
func (o *OdeEnv) buildRobot(motorAngles []float64) {
	mass := ode.NewMass()
	mass.SetBox(bodyDensity, ode.V3(bodyLx, bodyLy, bodyLz))
	o.body = o.world.NewBody()
	o.body.SetMass(mass)
	o.body.SetPosition(ode.V3(0, 0, baseHeight))
	o.bodyGeom = o.space.NewBox(ode.V3(bodyLx, bodyLy, bodyLz))
	o.bodyGeom.SetBody(o.body)

	hipAnchors := [NumLegs][2]float64{
		{hipX, hipY},
		{hipX, -hipY},
		{-hipX, hipY},
		{-hipX, -hipY},
	}

	for leg := 0; leg < NumLegs; leg++ {
		hip := motorAngles[leg*MotorsPerLeg]
		knee := motorAngles[leg*MotorsPerLeg+1]

		hx, hy := hipAnchors[leg][0], hipAnchors[leg][1]
		anchorZ := baseHeight - bodyLz/2

		// Direction of the upper leg segment: -z rotated about y by
		// the hip angle
		ux, uz := math.Sin(hip), -math.Cos(hip)
		upperCenter := ode.V3(hx+ux*upperLen/2, hy, anchorZ+uz*upperLen/2)

		upper := o.newLegSegment(upperLen, upperCenter, hip)
		o.legBodies[leg] = upper.body
		o.legGeoms[leg] = upper.geom

		hipJoint := o.world.NewHingeJoint(ode.JointGroup(0))
		hipJoint.Attach(o.body, upper.body)
		hipJoint.SetAnchor(ode.V3(hx, hy, anchorZ))
		hipJoint.SetAxis(ode.V3(0, 1, 0))
		hipJoint.SetParam(ode.LoStopJtParam, -jointStop)
		hipJoint.SetParam(ode.HiStopJtParam, jointStop)
		o.joints[leg*MotorsPerLeg] = hipJoint

		// Knee anchor sits at the end of the upper segment
		kx, kz := hx+ux*upperLen, anchorZ+uz*upperLen
		total := hip + knee
		lx, lz := math.Sin(total), -math.Cos(total)
		lowerCenter := ode.V3(kx+lx*lowerLen/2, hy, kz+lz*lowerLen/2)

		lower := o.newLegSegment(lowerLen, lowerCenter, total)
		o.legBodies[NumLegs+leg] = lower.body
		o.legGeoms[NumLegs+leg] = lower.geom

		kneeJoint := o.world.NewHingeJoint(ode.JointGroup(0))
		kneeJoint.Attach(upper.body, lower.body)
		kneeJoint.SetAnchor(ode.V3(kx, hy, kz))
		kneeJoint.SetAxis(ode.V3(0, 1, 0))
		kneeJoint.SetParam(ode.LoStopJtParam, -jointStop)
		kneeJoint.SetParam(ode.HiStopJtParam, jointStop)
		o.joints[leg*MotorsPerLeg+1] = kneeJoint
	}

	o.built = true
}

type legSegment struct {
	body ode.Body
	geom ode.Geom
}

func (o *OdeEnv) newLegSegment(length float64, center ode.Vector3,
	pitch float64) legSegment {
	mass := ode.NewMass()
	mass.SetCapsule(legDensity, 3, legRadius, length)

	body := o.world.NewBody()
	body.SetMass(mass)
	body.SetPosition(center)

	q := lie.QuaternionFromRPY(0, pitch, 0)
	// ODE quaternions are (w, x, y, z)
	body.SetQuaternion(ode.Quaternion{q[3], q[0], q[1], q[2]})

	geom := o.space.NewCapsule(legRadius, length)
	geom.SetBody(body)

	return legSegment{body: body, geom: geom}
}

// nearCallback creates contact joints between colliding geoms
func (o *OdeEnv) nearCallback(data interface{}, obj1, obj2 ode.Geom) {
	body1, body2 := obj1.Body(), obj2.Body()
	if body1 != 0 && body2 != 0 && body1.Connected(body2) {
		return
	}

	cts := obj1.Collide(obj2, 1, 0)
	if len(cts) > 0 {
		contact := ode.NewContact()
		contact.Surface.Mode = 0
		contact.Surface.Mu = groundFriction
		contact.Geom = cts[0]
		ct := o.world.NewContactJoint(o.jointGroup, contact)
		ct.Attach(body1, body2)
	}
}

// Apply runs one control interval of PD position control toward the
// commanded motor angles. The world-frame base twist entering the
// interval is recorded as the previous-step twist.
func (o *OdeEnv) Apply(commands []float64) error {
	if len(commands) != NumMotors {
		return fmt.Errorf("apply: invalid number of motor commands "+
			"\n\thave(%v) \n\twant(%v)", len(commands), NumMotors)
	}

	lin := o.body.LinearVelocity()
	ang := o.body.AngularVelocity()
	for i := 0; i < 3; i++ {
		o.prevLinTwist[i] = lin[i]
		o.prevAngTwist[i] = ang[i]
	}

	for sub := 0; sub < o.actionRepeat; sub++ {
		for i, joint := range o.joints {
			torque := o.kp*(commands[i]-joint.Angle()) -
				o.kd*joint.AngleRate()
			torque = floatutils.Clip(torque, -MaxTorque, MaxTorque)
			joint.AddTorque(torque)
			o.torques[i] = torque
		}

		o.space.Collide(o, o.nearCallback)
		o.world.QuickStep(o.timeStep)
		o.jointGroup.Empty()
	}
	return nil
}

// BasePosition returns the world-frame position of the torso
func (o *OdeEnv) BasePosition() []float64 {
	pos := o.body.Position()
	return []float64{pos[0], pos[1], pos[2]}
}

// BaseOrientation returns the torso orientation as an (x, y, z, w)
// quaternion
func (o *OdeEnv) BaseOrientation() []float64 {
	q := o.body.Quaternion()
	return []float64{q[1], q[2], q[3], q[0]}
}

// BaseAngularVelocity returns the current world-frame angular velocity
// of the torso
func (o *OdeEnv) BaseAngularVelocity() []float64 {
	w := o.body.AngularVelocity()
	return []float64{w[0], w[1], w[2]}
}

// PrevLinearTwist returns the world-frame linear velocity recorded at
// the start of the previous Apply call
func (o *OdeEnv) PrevLinearTwist() []float64 {
	return o.prevLinTwist
}

// PrevAngularTwist returns the world-frame angular velocity recorded
// at the start of the previous Apply call
func (o *OdeEnv) PrevAngularTwist() []float64 {
	return o.prevAngTwist
}

// NumMotors returns the number of actuated joints
func (o *OdeEnv) NumMotors() int {
	return NumMotors
}

// MotorAngles returns the current hinge angle of every motor
func (o *OdeEnv) MotorAngles() []float64 {
	angles := make([]float64, NumMotors)
	for i, joint := range o.joints {
		angles[i] = joint.Angle()
	}
	return angles
}

// MotorVelocities returns the current hinge angular rate of every
// motor
func (o *OdeEnv) MotorVelocities() []float64 {
	rates := make([]float64, NumMotors)
	for i, joint := range o.joints {
		rates[i] = joint.AngleRate()
	}
	return rates
}

// MotorTorques returns the torque applied to each motor on the last
// substep
func (o *OdeEnv) MotorTorques() []float64 {
	torques := make([]float64, NumMotors)
	copy(torques, o.torques)
	return torques
}

// FootPositions returns the world-frame position of each foot, the
// free end of each lower leg segment
func (o *OdeEnv) FootPositions() [][]float64 {
	feet := make([][]float64, NumLegs)
	for leg := 0; leg < NumLegs; leg++ {
		lower := o.legBodies[NumLegs+leg]
		pos := lower.Position()
		quat := lower.Quaternion()
		_, pitch, _ := lie.EulerFromQuaternion([]float64{
			quat[1], quat[2], quat[3], quat[0],
		})
		feet[leg] = []float64{
			pos[0] + math.Sin(pitch)*lowerLen/2,
			pos[1],
			pos[2] - math.Cos(pitch)*lowerLen/2,
		}
	}
	return feet
}

// TimeStep returns the duration of a single physics substep
func (o *OdeEnv) TimeStep() float64 {
	return o.timeStep
}

// ControlTimeStep returns the duration of one full Apply call
func (o *OdeEnv) ControlTimeStep() float64 {
	return o.timeStep * float64(o.actionRepeat)
}

// Close destroys the simulation's rigid bodies
func (o *OdeEnv) Close() {
	o.destroyRobot()
	o.plane.Destroy()
	o.jointGroup.Destroy()
	o.world.Destroy()
}
