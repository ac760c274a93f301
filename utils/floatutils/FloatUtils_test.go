package floatutils

import (
	"math"
	"testing"
)

func TestSign(t *testing.T) {
	if Sign(3.2) != 1.0 {
		t.Error("positive argument should have sign 1")
	}
	if Sign(-0.001) != -1.0 {
		t.Error("negative argument should have sign -1")
	}
	// Unlike math.Copysign, zero has sign zero
	if Sign(0.0) != 0.0 {
		t.Error("zero argument should have sign 0")
	}
	if Sign(math.Copysign(0, -1)) != 0.0 {
		t.Error("negative zero argument should have sign 0")
	}
}

func TestClip(t *testing.T) {
	if got := Clip(5.0, -1.0, 1.0); got != 1.0 {
		t.Errorf("value above bounds not clipped \n\twant(1.0) "+
			"\n\thave(%v)", got)
	}
	if got := Clip(-5.0, -1.0, 1.0); got != -1.0 {
		t.Errorf("value below bounds not clipped \n\twant(-1.0) "+
			"\n\thave(%v)", got)
	}
	if got := Clip(0.25, -1.0, 1.0); got != 0.25 {
		t.Errorf("value within bounds modified \n\twant(0.25) "+
			"\n\thave(%v)", got)
	}
}

