package sailsim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

// vInfConservationTol is the relative tolerance on |v∞| between entry and
// exit of a flyby; a two-body assist cannot change the excess speed.
const vInfConservationTol = 1e-6

// AssistSummary is the outcome of a gravity-assist flyby analysis.
type AssistSummary struct {
	VInf         float64   // hyperbolic excess speed, km/s
	TurningAngle float64   // velocity deflection δ, radians
	ΔV           []float64 // velocity change in the body frame, km/s
}

func (s AssistSummary) String() string {
	return fmt.Sprintf("v∞=%.4f km/s δ=%.3f° |Δv|=%.4f km/s", s.VInf, Rad2deg(s.TurningAngle), norm(s.ΔV))
}

// AnalyzeGravityAssist computes the excess velocity, turning angle and
// velocity change of a hyperbolic flyby from its entry and exit states, both
// expressed in the body's frame. |v∞| must be conserved between entry and
// exit; a violation beyond solver tolerance is returned as an error alongside
// the summary, since it means the states do not describe one two-body flyby.
func AnalyzeGravityAssist(entry, exit StateVector, body Body) (AssistSummary, error) {
	want := InSOI(body)
	if entry.Frame != want {
		return AssistSummary{}, FrameMismatchError{Op: "AnalyzeGravityAssist", Want: want, Got: entry.Frame}
	}
	if err := sameFrame("AnalyzeGravityAssist", entry, exit); err != nil {
		return AssistSummary{}, err
	}

	elIn := NewElementsFromRV(entry.R, entry.V, time.Time{}, body)
	if !elIn.Hyperbolic() {
		return AssistSummary{}, errors.New("entry state is not hyperbolic")
	}
	vInf := math.Sqrt(-body.μ / elIn.A())
	rP := elIn.Periapsis()

	// δ = 2·arcsin(1/(1 + rP·v∞²/μ)), argument clamped to absorb float
	// overshoot right at ±1.
	arg := 1 / (1 + rP*vInf*vInf/body.μ)
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}
	δ := 2 * math.Asin(arg)

	elOut := NewElementsFromRV(exit.R, exit.V, time.Time{}, body)
	if !elOut.Hyperbolic() {
		return AssistSummary{}, errors.New("exit state is not hyperbolic")
	}
	vInfOut := math.Sqrt(-body.μ / elOut.A())

	summary := AssistSummary{
		VInf:         vInf,
		TurningAngle: δ,
		ΔV:           sub(exit.V, entry.V),
	}
	if !floats.EqualWithinRel(vInfOut, vInf, vInfConservationTol) {
		return summary, fmt.Errorf("v∞ not conserved across the flyby: in=%.9f out=%.9f km/s", vInf, vInfOut)
	}
	return summary, nil
}

// PredictAssistExit rotates the entry velocity by the turning angle about the
// orbit normal to obtain the outbound velocity of the flyby, in the body
// frame. The speed is untouched, which is what conserves |v∞|.
func PredictAssistExit(entry StateVector, body Body) (StateVector, error) {
	want := InSOI(body)
	if entry.Frame != want {
		return StateVector{}, FrameMismatchError{Op: "PredictAssistExit", Want: want, Got: entry.Frame}
	}
	el := NewElementsFromRV(entry.R, entry.V, time.Time{}, body)
	if !el.Hyperbolic() {
		return StateVector{}, errors.New("entry state is not hyperbolic")
	}
	vInf := math.Sqrt(-body.μ / el.A())
	arg := 1 / (1 + el.Periapsis()*vInf*vInf/body.μ)
	if arg > 1 {
		arg = 1
	}
	δ := 2 * math.Asin(arg)
	h := cross(entry.R, entry.V)
	if norm(h) < hMagε {
		return StateVector{}, errors.New("degenerate entry geometry: no orbit normal")
	}
	// Prograde deflection bends the velocity around the body, against the
	// direction of motion past periapsis.
	exitV := rotAboutAxis(entry.V, h, δ)
	return StateVector{R: entry.R, V: exitV, Frame: entry.Frame}, nil
}

// TurnAngleFromVinf computes the turn angle about a body from the periapsis
// radius and the excess speed.
func TurnAngleFromVinf(vInf, rP float64, body Body) float64 {
	arg := 1 / (1 + vInf*vInf*(rP/body.μ))
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}
	return 2 * math.Asin(arg)
}
