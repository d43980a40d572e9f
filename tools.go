package sailsim

import (
	"errors"
	"math"
	"time"
)

// HohmannEstimate sizes a coplanar two-impulse transfer from the ship's
// current heliocentric radius to the target body's mean orbital radius. It is
// a planning figure for encounter search, not a propagated maneuver.
// To get final Δv figures:
// ΔvDeparture = vDeparture - current speed
// ΔvArrival = vArrival - target orbital speed
func HohmannEstimate(ship Ship, target Body, at time.Time) (vDeparture, vArrival float64, tof time.Duration, err error) {
	if !ship.Orbit.Frame().IsHeliocentric() {
		return 0, 0, 0, errors.New("Hohmann estimate requires a heliocentric ship")
	}
	if target.a <= 0 {
		return 0, 0, 0, errors.New("target has no heliocentric orbit")
	}
	rI := ship.Orbit.RNormAt(at)
	rF := target.a
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * Sun.GM() / rI) - (Sun.GM() / aTransfer))
	vArrival = math.Sqrt((2 * Sun.GM() / rF) - (Sun.GM() / aTransfer))
	tof = time.Duration(math.Pi*math.Sqrt(math.Pow(aTransfer, 3)/Sun.GM())) * time.Second
	return
}

// CircularVelocity returns the circular orbital speed at radius r about a body.
func CircularVelocity(r float64, body Body) float64 {
	return math.Sqrt(body.GM() / r)
}

// EscapeVelocity returns the escape speed at radius r from a body.
func EscapeVelocity(r float64, body Body) float64 {
	return math.Sqrt(2 * body.GM() / r)
}
