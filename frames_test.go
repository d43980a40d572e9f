package sailsim

import (
	"math"
	"strings"
	"testing"
)

func TestFrameIdentity(t *testing.T) {
	if Heliocentric() != (Frame{Sun.Name}) {
		t.Fatal("heliocentric frame mismatch")
	}
	if Heliocentric() == InSOI(Earth) {
		t.Fatal("frames with different centers compare equal")
	}
	if InSOI(Earth) != InSOI(Earth) {
		t.Fatal("same-center frames compare unequal")
	}
	if !strings.Contains(InSOI(Mars).String(), Mars.Name) {
		t.Fatalf("frame stringer lost the center: %s", InSOI(Mars))
	}
}

func TestStateVectorFinite(t *testing.T) {
	good := StateVector{R: []float64{1, 2, 3}, V: []float64{4, 5, 6}, Frame: Heliocentric()}
	if !good.Finite() {
		t.Fatal("finite state reported non-finite")
	}
	for _, bad := range []StateVector{
		{R: []float64{math.NaN(), 0, 0}, V: []float64{0, 0, 0}, Frame: Heliocentric()},
		{R: []float64{0, 0, 0}, V: []float64{0, math.Inf(1), 0}, Frame: Heliocentric()},
	} {
		if bad.Finite() {
			t.Fatalf("non-finite state passed: %+v", bad)
		}
	}
}

func TestSameFrame(t *testing.T) {
	a := StateVector{R: []float64{1, 0, 0}, V: []float64{0, 1, 0}, Frame: Heliocentric()}
	b := StateVector{R: []float64{1, 0, 0}, V: []float64{0, 1, 0}, Frame: InSOI(Earth)}
	if err := sameFrame("test", a, a); err != nil {
		t.Fatal(err)
	}
	err := sameFrame("test", a, b)
	if err == nil {
		t.Fatal("mixed frames accepted")
	}
	if !strings.Contains(err.Error(), "test") {
		t.Fatalf("error lost the operation name: %v", err)
	}
}
