package matutils

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestVecClip(t *testing.T) {
	vec := mat.NewVecDense(5, []float64{-2.0, -0.5, 0.0, 0.5, 2.0})
	VecClip(vec, -1.0, 1.0)

	want := []float64{-1.0, -0.5, 0.0, 0.5, 1.0}
	for i := range want {
		if vec.AtVec(i) != want[i] {
			t.Errorf("unexpected clipped value at %v \n\twant(%v) "+
				"\n\thave(%v)", i, want[i], vec.AtVec(i))
		}
	}
}
