// Package lie implements the rigid-body transform machinery needed to
// move spatial twists between the world and body frames of a robot.
//
// Twists are 6-vectors with the angular block first and the linear
// block second: V = [ωx, ωy, ωz, vx, vy, vz]. For a homogeneous
// transform T taking body coordinates to world coordinates,
// Adjoint(TransInv(T)) maps a world-frame twist to the body frame.
package lie

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RPY returns the rotation matrix for the given roll, pitch and yaw
// Euler angles, composed as Rz(yaw) * Ry(pitch) * Rx(roll).
func RPY(roll, pitch, yaw float64) *mat.Dense {
	cr, sr := math.Cos(roll), math.Sin(roll)
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	cy, sy := math.Cos(yaw), math.Sin(yaw)

	return mat.NewDense(3, 3, []float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	})
}

// RpToTrans builds a 4x4 homogeneous transform from a 3x3 rotation
// matrix r and a translation vector p
func RpToTrans(r *mat.Dense, p *mat.VecDense) *mat.Dense {
	rRows, rCols := r.Dims()
	if rRows != 3 || rCols != 3 {
		panic(fmt.Sprintf("rpToTrans: rotation must be 3x3 \n\thave(%vx%v)",
			rRows, rCols))
	}
	if p.Len() != 3 {
		panic(fmt.Sprintf("rpToTrans: translation must have length 3 "+
			"\n\thave(%v)", p.Len()))
	}

	t := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.Set(i, j, r.At(i, j))
		}
		t.Set(i, 3, p.AtVec(i))
	}
	t.Set(3, 3, 1.0)
	return t
}

// TransToRp splits a 4x4 homogeneous transform into its rotation and
// translation components
func TransToRp(t *mat.Dense) (*mat.Dense, *mat.VecDense) {
	tRows, tCols := t.Dims()
	if tRows != 4 || tCols != 4 {
		panic(fmt.Sprintf("transToRp: transform must be 4x4 \n\thave(%vx%v)",
			tRows, tCols))
	}

	r := mat.NewDense(3, 3, nil)
	p := mat.NewVecDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, t.At(i, j))
		}
		p.SetVec(i, t.At(i, 3))
	}
	return r, p
}

// TransInv inverts a homogeneous transform using the orthonormality of
// its rotation block, returning [Rᵀ, -Rᵀp; 0, 1]. This is cheaper and
// numerically safer than a general matrix inverse.
func TransInv(t *mat.Dense) *mat.Dense {
	r, p := TransToRp(t)

	var rT mat.Dense
	rT.CloneFrom(r.T())

	var pInv mat.VecDense
	pInv.MulVec(&rT, p)
	pInv.ScaleVec(-1.0, &pInv)

	return RpToTrans(&rT, &pInv)
}

// VecToSo3 returns the 3x3 skew-symmetric matrix of a 3-vector, so
// that VecToSo3(ω) * v == ω × v
func VecToSo3(v *mat.VecDense) *mat.Dense {
	if v.Len() != 3 {
		panic(fmt.Sprintf("vecToSo3: vector must have length 3 \n\thave(%v)",
			v.Len()))
	}

	x, y, z := v.AtVec(0), v.AtVec(1), v.AtVec(2)
	return mat.NewDense(3, 3, []float64{
		0, -z, y,
		z, 0, -x,
		-y, x, 0,
	})
}

// Adjoint returns the 6x6 adjoint representation of a homogeneous
// transform T = (R, p):
//
//	[ R       0 ]
//	[ [p]R    R ]
//
// For a twist V = [ω, v] expressed in frame b and T taking b
// coordinates to frame a, Adjoint(T) * V re-expresses the twist in
// frame a.
func Adjoint(t *mat.Dense) *mat.Dense {
	r, p := TransToRp(t)

	var pR mat.Dense
	pR.Mul(VecToSo3(p), r)

	adj := mat.NewDense(6, 6, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			adj.Set(i, j, r.At(i, j))
			adj.Set(i+3, j, pR.At(i, j))
			adj.Set(i+3, j+3, r.At(i, j))
		}
	}
	return adj
}

// EulerFromQuaternion converts a unit quaternion in (x, y, z, w) order
// to roll, pitch, yaw Euler angles. The pitch argument of Asin is
// clamped so that quaternions which are very slightly non-unit from
// accumulated simulation error do not produce NaN.
func EulerFromQuaternion(q []float64) (roll, pitch, yaw float64) {
	if len(q) != 4 {
		panic(fmt.Sprintf("eulerFromQuaternion: quaternion must have "+
			"length 4 \n\thave(%v)", len(q)))
	}
	x, y, z, w := q[0], q[1], q[2], q[3]

	roll = math.Atan2(2.0*(w*x+y*z), 1.0-2.0*(x*x+y*y))

	sinPitch := 2.0 * (w*y - z*x)
	if sinPitch > 1.0 {
		sinPitch = 1.0
	} else if sinPitch < -1.0 {
		sinPitch = -1.0
	}
	pitch = math.Asin(sinPitch)

	yaw = math.Atan2(2.0*(w*z+x*y), 1.0-2.0*(y*y+z*z))
	return
}

// QuaternionFromRPY converts roll, pitch, yaw Euler angles to a unit
// quaternion in (x, y, z, w) order
func QuaternionFromRPY(roll, pitch, yaw float64) []float64 {
	cr, sr := math.Cos(roll/2.0), math.Sin(roll/2.0)
	cp, sp := math.Cos(pitch/2.0), math.Sin(pitch/2.0)
	cy, sy := math.Cos(yaw/2.0), math.Sin(yaw/2.0)

	return []float64{
		sr*cp*cy - cr*sp*sy,
		cr*sp*cy + sr*cp*sy,
		cr*cp*sy - sr*sp*cy,
		cr*cp*cy + sr*sp*sy,
	}
}
