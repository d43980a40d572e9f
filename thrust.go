package sailsim

import (
	"fmt"
	"math"
	"time"

	"github.com/ChristopherRabotin/ode"
)

// NonFiniteStateError reports a NaN or Infinity produced in the pipeline.
// LastGood carries the state immediately before the failing operation so the
// caller can keep rendering something sensible.
type NonFiniteStateError struct {
	Op       string
	LastGood StateVector
}

func (e NonFiniteStateError) Error() string {
	return fmt.Sprintf("%s: non-finite state produced", e.Op)
}

// IntegrateThrust applies a continuous low-thrust acceleration over one step
// using the state-vector method: the velocity is perturbed, the position is
// left untouched, and the whole element set is rebuilt from the perturbed
// state. The ship can therefore never jump position when its orbit shape
// changes. Editing a/e in place while the angular elements go stale is exactly
// the teleportation bug this signature makes impossible.
func IntegrateThrust(sv StateVector, accelRCN []float64, step time.Duration, epoch time.Time, origin Body) (*Elements, error) {
	if sv.Frame != (Frame{origin.Name}) {
		return nil, FrameMismatchError{Op: "IntegrateThrust", Want: Frame{origin.Name}, Got: sv.Frame}
	}
	accel := rcn2Inertial(sv.R, sv.V, accelRCN)
	dt := step.Seconds()
	newV := []float64{sv.V[0] + accel[0]*dt, sv.V[1] + accel[1]*dt, sv.V[2] + accel[2]*dt}
	if !finite(newV) {
		return nil, NonFiniteStateError{Op: "IntegrateThrust", LastGood: sv}
	}
	return NewElementsFromRV(sv.R, newV, epoch, origin), nil
}

// GaussVariationalRates returns the osculating rates da/dt, de/dt, di/dt,
// dΩ/dt, dω/dt for an RCN thrust acceleration, as per the Gauss planetary
// equations. Diagnostic display only: propagation truth always goes through
// IntegrateThrust and the full reconversion.
func GaussVariationalRates(o Elements, at time.Time, accelRCN []float64) (rates [5]float64) {
	ν, _ := o.TrueAnomalyAt(at)
	sinν, cosν := math.Sincos(ν)
	n := o.MeanMotion()
	e := o.e
	oneMe2 := math.Sqrt(math.Abs(1 - e*e))
	p := o.SemiParameter()
	r := p / (1 + e*cosν)
	u := o.ω + ν
	sinu, cosu := math.Sincos(u)
	fr, fs, fw := accelRCN[0], accelRCN[1], accelRCN[2]

	rates[0] = (2 / (n * oneMe2)) * (e*sinν*fr + (p/r)*fs)
	rates[1] = (oneMe2 / (n * o.a)) * (sinν*fr + (cosν+(e+cosν)/(1+e*cosν))*fs)
	rates[2] = (r * cosu / (n * o.a * o.a * oneMe2)) * fw
	dΩ := (r * sinu / (n * o.a * o.a * oneMe2 * math.Sin(o.i))) * fw
	rates[3] = dΩ
	rates[4] = (oneMe2/(n*o.a*e))*(-cosν*fr+sinν*(2+e*cosν)/(1+e*cosν)*fs) - math.Cos(o.i)*dΩ
	return
}

// ElementRateProfile integrates the Gauss rates with RK4 over a display window
// to show how a constant sail setting bends the osculating elements over time.
// The mean anomaly advances on the two-body rate alone; this profile is a
// diagnostic overlay, never a source of truth for where the ship is.
type ElementRateProfile struct {
	Samples  [][6]float64 // a, e, i, Ω, ω, M per step
	origin   Body
	accelRCN []float64
	state    [6]float64
	epoch    time.Time
	elapsed  time.Duration
	window   time.Duration
	step     time.Duration
}

// NewElementRateProfile prepares a profile starting from the provided orbit.
func NewElementRateProfile(o Elements, accelRCN []float64, window, step time.Duration) *ElementRateProfile {
	return &ElementRateProfile{
		origin:   o.Origin,
		accelRCN: accelRCN,
		state:    [6]float64{o.a, o.e, o.i, o.Ω, o.ω, o.M0},
		epoch:    o.epoch,
		window:   window,
		step:     step,
	}
}

// Run integrates the profile. Blocking, but bounded by the window.
func (p *ElementRateProfile) Run() {
	ode.NewRK4(0, p.step.Seconds(), p).Solve()
}

// GetState implements ode.Integrable.
func (p *ElementRateProfile) GetState() []float64 {
	return p.state[:]
}

// SetState implements ode.Integrable.
func (p *ElementRateProfile) SetState(t float64, s []float64) {
	copy(p.state[:], s)
	p.Samples = append(p.Samples, p.state)
	p.elapsed += p.step
}

// Stop implements ode.Integrable.
func (p *ElementRateProfile) Stop(t float64) bool {
	return p.elapsed >= p.window
}

// Func implements ode.Integrable.
func (p *ElementRateProfile) Func(t float64, s []float64) []float64 {
	o := Elements{s[0], s[1], s[2], s[3], s[4], s[5], p.epoch, p.origin}
	rates := GaussVariationalRates(o, p.epoch.Add(p.elapsed), p.accelRCN)
	return []float64{rates[0], rates[1], rates[2], rates[3], rates[4], o.MeanMotion()}
}
