package sailsim

import "fmt"

// Frame identifies the gravitational reference frame of a state vector.
// A frame is entirely determined by its central body: the Sun for the
// heliocentric frame, a planet while inside its sphere of influence.
type Frame struct {
	Center string
}

// Heliocentric is the frame centered on the Sun.
func Heliocentric() Frame {
	return Frame{Sun.Name}
}

// InSOI returns the planetocentric frame of the given body.
func InSOI(b Body) Frame {
	return Frame{b.Name}
}

// IsHeliocentric returns whether this frame is Sun centered.
func (f Frame) IsHeliocentric() bool {
	return f.Center == Sun.Name
}

func (f Frame) String() string {
	if f.IsHeliocentric() {
		return "heliocentric"
	}
	return fmt.Sprintf("SOI(%s)", f.Center)
}

// StateVector is a position and velocity pair tagged with its frame.
// States from different frames must never be combined without an explicit
// conversion; doing so is a programming error surfaced as FrameMismatchError.
type StateVector struct {
	R, V  []float64 // km, km/s
	Frame Frame
}

// Finite returns whether all components of the state are finite.
func (sv StateVector) Finite() bool {
	return finite(sv.R) && finite(sv.V)
}

// FrameMismatchError reports an operation fed with states of different frames.
type FrameMismatchError struct {
	Op         string
	Want, Got Frame
}

func (e FrameMismatchError) Error() string {
	return fmt.Sprintf("%s: frame mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

// sameFrame fails hard when the two states do not share a frame.
func sameFrame(op string, a, b StateVector) error {
	if a.Frame != b.Frame {
		return FrameMismatchError{Op: op, Want: a.Frame, Got: b.Frame}
	}
	return nil
}
