package lie

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const tolerance float64 = 1e-12

func TestTransInvRoundTrip(t *testing.T) {
	src := rand.NewSource(13)
	angles := distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: src}
	positions := distuv.Uniform{Min: -10.0, Max: 10.0, Src: src}

	for i := 0; i < 100; i++ {
		r := RPY(angles.Rand(), angles.Rand()/2, angles.Rand())
		p := mat.NewVecDense(3, []float64{
			positions.Rand(), positions.Rand(), positions.Rand(),
		})

		trans := RpToTrans(r, p)

		var prod mat.Dense
		prod.Mul(trans, TransInv(trans))

		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				want := 0.0
				if row == col {
					want = 1.0
				}
				if math.Abs(prod.At(row, col)-want) > 1e-9 {
					t.Fatalf("T * TransInv(T) != I at (%v, %v) "+
						"\n\twant(%v) \n\thave(%v)", row, col, want,
						prod.At(row, col))
				}
			}
		}
	}
}

func TestRPYKnownRotation(t *testing.T) {
	// A quarter turn of yaw maps x̂ to ŷ
	r := RPY(0, 0, math.Pi/2)

	want := []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(r.At(i, j)-want[i*3+j]) > tolerance {
				t.Errorf("unexpected rotation entry at (%v, %v) "+
					"\n\twant(%v) \n\thave(%v)", i, j, want[i*3+j],
					r.At(i, j))
			}
		}
	}
}

func TestAdjointIdentity(t *testing.T) {
	trans := RpToTrans(RPY(0, 0, 0), mat.NewVecDense(3, nil))
	adj := Adjoint(trans)

	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(adj.At(i, j)-want) > tolerance {
				t.Fatalf("adjoint of identity is not identity at (%v, %v)",
					i, j)
			}
		}
	}
}

// TestAdjointWorldToBody checks that the adjoint of an inverted
// body-to-world transform re-expresses world-frame twists in the body
// frame.
func TestAdjointWorldToBody(t *testing.T) {
	// Body yawed a quarter turn, translating along world x. In body
	// coordinates the motion points along -y.
	trans := RpToTrans(RPY(0, 0, math.Pi/2), mat.NewVecDense(3, nil))
	adj := Adjoint(TransInv(trans))

	vWorld := mat.NewVecDense(6, []float64{0, 0, 0, 1, 0, 0})
	var vBody mat.VecDense
	vBody.MulVec(adj, vWorld)

	want := []float64{0, 0, 0, 0, -1, 0}
	for i := range want {
		if math.Abs(vBody.AtVec(i)-want[i]) > tolerance {
			t.Errorf("unexpected body twist entry %v \n\twant(%v) "+
				"\n\thave(%v)", i, want[i], vBody.AtVec(i))
		}
	}

	// Body at (1, 0, 0) with identity rotation, world spinning about
	// ẑ. The point sweeps in +y.
	trans = RpToTrans(RPY(0, 0, 0), mat.NewVecDense(3,
		[]float64{1, 0, 0}))
	adj = Adjoint(TransInv(trans))

	vWorld = mat.NewVecDense(6, []float64{0, 0, 1, 0, 0, 0})
	vBody.MulVec(adj, vWorld)

	want = []float64{0, 0, 1, 0, 1, 0}
	for i := range want {
		if math.Abs(vBody.AtVec(i)-want[i]) > tolerance {
			t.Errorf("unexpected body twist entry %v \n\twant(%v) "+
				"\n\thave(%v)", i, want[i], vBody.AtVec(i))
		}
	}
}

func TestEulerQuaternionRoundTrip(t *testing.T) {
	rpys := [][3]float64{
		{0, 0, 0},
		{0.1, -0.2, 0.3},
		{-1.0, 1.2, -2.5},
		{math.Pi / 2, 0, 0},
		{0.3, -1.4, 3.0},
	}

	for _, rpy := range rpys {
		q := QuaternionFromRPY(rpy[0], rpy[1], rpy[2])
		roll, pitch, yaw := EulerFromQuaternion(q)

		if math.Abs(roll-rpy[0]) > 1e-9 || math.Abs(pitch-rpy[1]) > 1e-9 ||
			math.Abs(yaw-rpy[2]) > 1e-9 {
			t.Errorf("round trip failed for %v \n\thave(%v, %v, %v)",
				rpy, roll, pitch, yaw)
		}
	}
}

func TestVecToSo3Cross(t *testing.T) {
	omega := mat.NewVecDense(3, []float64{1, 2, 3})
	v := mat.NewVecDense(3, []float64{-2, 0.5, 4})

	var got mat.VecDense
	got.MulVec(VecToSo3(omega), v)

	// ω × v computed by hand
	want := []float64{
		2*4 - 3*0.5,
		3*(-2) - 1*4,
		1*0.5 - 2*(-2),
	}
	for i := range want {
		if math.Abs(got.AtVec(i)-want[i]) > tolerance {
			t.Errorf("unexpected cross product entry %v \n\twant(%v) "+
				"\n\thave(%v)", i, want[i], got.AtVec(i))
		}
	}
}
