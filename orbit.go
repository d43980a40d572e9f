package sailsim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 km
	velocityε     = 1e-6                         // in km/s
	// hMagε is the angular momentum magnitude below which the orbit is treated
	// as degenerate/radial and the reference normal takes over.
	hMagε = 1e-10
	// eSnapε is the eccentricity below which the periapsis direction is
	// undefined and snaps to the node (or reference) axis.
	eSnapε = 1e-10
	// parabolicAMax clamps |a| to this multiple of r when the specific energy
	// is numerically zero (near-parabolic state).
	parabolicAMax = 1e6
	// nearParabolicBand classifies eccentricities this close to 1.
	nearParabolicBand = 1e-3
)

// OrbitClass is the conic classification of an orbit.
type OrbitClass uint8

const (
	// Elliptic orbits have e < 1.
	Elliptic OrbitClass = iota + 1
	// Hyperbolic orbits have e > 1.
	Hyperbolic
	// NearParabolic orbits sit numerically on the e=1 boundary.
	NearParabolic
)

func (c OrbitClass) String() string {
	switch c {
	case Elliptic:
		return "elliptic"
	case Hyperbolic:
		return "hyperbolic"
	case NearParabolic:
		return "near-parabolic"
	}
	panic("cannot stringify unknown orbit class")
}

// Elements defines an orbit via its classical orbital elements at an epoch.
// It is an immutable value: any operation which changes the orbit shape goes
// through a state vector perturbation and a whole reconversion, never through
// field edits. This is what keeps a ship's position and its elements in
// agreement at all times.
type Elements struct {
	a, e, i, Ω, ω, M0 float64
	epoch             time.Time
	Origin            Body
}

// A returns the semi-major axis (negative for hyperbolic orbits).
func (o Elements) A() float64 { return o.a }

// Ecc returns the eccentricity.
func (o Elements) Ecc() float64 { return o.e }

// Inc returns the inclination in radians.
func (o Elements) Inc() float64 { return o.i }

// RAAN returns the longitude of the ascending node in radians.
func (o Elements) RAAN() float64 { return o.Ω }

// ArgPeriapsis returns the argument of periapsis in radians.
func (o Elements) ArgPeriapsis() float64 { return o.ω }

// MeanAnomaly0 returns the mean anomaly at the epoch in radians.
func (o Elements) MeanAnomaly0() float64 { return o.M0 }

// Epoch returns the epoch of the mean anomaly.
func (o Elements) Epoch() time.Time { return o.epoch }

// Frame returns the reference frame these elements live in.
func (o Elements) Frame() Frame { return Frame{o.Origin.Name} }

// Hyperbolic returns whether this orbit is an escape trajectory.
func (o Elements) Hyperbolic() bool { return o.e >= 1 }

// Class returns the conic classification.
func (o Elements) Class() OrbitClass {
	if math.Abs(o.e-1) < nearParabolicBand {
		return NearParabolic
	}
	if o.e < 1 {
		return Elliptic
	}
	return Hyperbolic
}

// Energyξ returns the specific mechanical energy ξ.
func (o Elements) Energyξ() float64 {
	return -o.Origin.μ / (2 * o.a)
}

// SemiParameter returns the semi-latus rectum (positive for all conics).
func (o Elements) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Periapsis returns the periapsis radius.
func (o Elements) Periapsis() float64 {
	return o.a * (1 - o.e)
}

// Apoapsis returns the apoapsis radius (negative/meaningless for hyperbolae).
func (o Elements) Apoapsis() float64 {
	return o.a * (1 + o.e)
}

// MeanMotion returns the mean motion n in rad/s.
func (o Elements) MeanMotion() float64 {
	return math.Sqrt(o.Origin.μ / math.Pow(math.Abs(o.a), 3))
}

// Period returns the period of this orbit. Panics on hyperbolic orbits.
func (o Elements) Period() time.Duration {
	if o.Hyperbolic() {
		panic("hyperbolic orbits have no period")
	}
	// The time package does not trivially handle fractions of a second, so
	// let's compute this in a convoluted way...
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.Origin.μ)
	duration, _ := time.ParseDuration(fmt.Sprintf("%.6fs", seconds))
	return duration
}

// MeanAnomalyAt propagates the mean anomaly to the provided time.
// Elliptic anomalies are wrapped into [0, 2π); hyperbolic ones never wrap.
func (o Elements) MeanAnomalyAt(dt time.Time) float64 {
	Δt := dt.Sub(o.epoch).Seconds()
	M := o.M0 + o.MeanMotion()*Δt
	if o.e < 1 {
		M = math.Mod(M, 2*math.Pi)
		if M < 0 {
			M += 2 * math.Pi
		}
	}
	return M
}

// TrueAnomalyAt solves the appropriate Kepler equation for the true anomaly at
// the provided time. For hyperbolic orbits the anomaly is signed and
// asymptotic reports whether the conversion hit the tanh saturation limit.
func (o Elements) TrueAnomalyAt(dt time.Time) (ν float64, asymptotic bool) {
	M := o.MeanAnomalyAt(dt)
	if o.e < 1 {
		E, _ := SolveEllipticKepler(M, o.e)
		return EccentricToTrue(E, o.e), false
	}
	H, _ := SolveHyperbolicKepler(M, o.e)
	return HyperbolicToTrue(H, o.e)
}

// StateAt returns the state vector of this orbit at the provided time,
// expressed in the frame of the origin body.
func (o Elements) StateAt(dt time.Time) StateVector {
	ν, _ := o.TrueAnomalyAt(dt)
	return o.stateAtTrue(ν)
}

func (o Elements) stateAtTrue(ν float64) StateVector {
	p := o.SemiParameter()
	sinν, cosν := math.Sincos(ν)
	r := p / (1 + o.e*cosν)
	R := []float64{r * cosν, r * sinν, 0}
	vFact := math.Sqrt(o.Origin.μ / p)
	V := []float64{-vFact * sinν, vFact * (o.e + cosν), 0}
	return StateVector{
		R:     PQW2ECI(o.i, o.ω, o.Ω, R),
		V:     PQW2ECI(o.i, o.ω, o.Ω, V),
		Frame: o.Frame(),
	}
}

// RNormAt returns the radius at the provided time without building the vector.
func (o Elements) RNormAt(dt time.Time) float64 {
	ν, _ := o.TrueAnomalyAt(dt)
	return o.SemiParameter() / (1 + o.e*math.Cos(ν))
}

// String implements the stringer interface (hence the value receiver).
func (o Elements) String() string {
	return fmt.Sprintf("a=%.1f e=%.6f i=%.3f Ω=%.3f ω=%.3f M0=%.3f @%s [%s]",
		o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.M0), o.epoch.Format(time.RFC3339), o.Origin.Name)
}

// Equals returns whether two orbits share the same shape and orientation,
// with free anomaly. Use StrictlyEquals to also check the anomaly.
func (o Elements) Equals(o1 Elements) (bool, error) {
	if !o.Origin.Equals(o1.Origin) {
		return false, errors.New("different origin")
	}
	if !floats.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !floats.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !floats.EqualWithinAbs(o.i, o1.i, angleε) {
		return false, errors.New("inclination invalid")
	}
	if !floats.EqualWithinAbs(o.Ω, o1.Ω, angleε) {
		return false, errors.New("RAAN invalid")
	}
	if o.e > eccentricityε && !floats.EqualWithinAbs(o.ω, o1.ω, angleε) {
		return false, errors.New("argument of periapsis invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical, anomaly included.
// The anomalies are compared at the epoch of the argument orbit.
func (o Elements) StrictlyEquals(o1 Elements) (bool, error) {
	if o.e > eccentricityε {
		M := o.MeanAnomalyAt(o1.epoch)
		if o.e < 1 {
			if ok, _ := anglesEqualRad(M, o1.M0); !ok {
				return false, errors.New("mean anomaly invalid")
			}
		} else if !floats.EqualWithinAbs(M, o1.M0, angleε) {
			return false, errors.New("mean anomaly invalid")
		}
	}
	return o.Equals(o1)
}

func anglesEqualRad(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	if diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", Rad2deg(diff))
}

// clampParabolic keeps the stored eccentricity off the exact parabolic
// boundary, on the side the semi-major axis sign dictates.
func clampParabolic(e, a float64) float64 {
	if math.Abs(e-1) >= eccentricityε {
		return e
	}
	if a < 0 {
		return 1 + eccentricityε
	}
	return 1 - eccentricityε
}

// trueToMean converts a true anomaly to a mean anomaly on the proper branch.
func trueToMean(ν, e float64) float64 {
	if e < 1 {
		M := EllipticMeanAnomaly(TrueToEccentric(ν, e), e)
		if M < 0 {
			M += 2 * math.Pi
		}
		return M
	}
	return HyperbolicMeanAnomaly(TrueToHyperbolic(ν, e), e)
}

// NewElements creates an orbit from mean-anomaly elements.
// WARNING: Angles must be in degrees not radians.
func NewElements(a, e, i, Ω, ω, M0 float64, epoch time.Time, origin Body) *Elements {
	if e < eccentricityε {
		e = eccentricityε
	}
	e = clampParabolic(e, a)
	if i < Rad2deg(angleε) {
		i = Rad2deg(angleε)
	}
	return &Elements{a, e, Deg2rad(i), Deg2rad(Ω), Deg2rad(ω), Deg2rad(M0), epoch, origin}
}

// NewElementsFromOE creates an orbit from true-anomaly elements.
// WARNING: Angles must be in degrees not radians. Hyperbolic true anomalies
// must be signed in (-νMax, νMax): pass negative degrees when approaching.
func NewElementsFromOE(a, e, i, Ω, ω, ν float64, epoch time.Time, origin Body) *Elements {
	if e < eccentricityε {
		e = eccentricityε
	}
	e = clampParabolic(e, a)
	if i < Rad2deg(angleε) {
		i = Rad2deg(angleε)
	}
	var νRad float64
	if e >= 1 && ν < 0 {
		νRad = -Deg2rad(-ν) // keep the sign, Deg2rad would wrap it
	} else {
		νRad = Deg2rad(ν)
	}
	M0 := trueToMean(νRad, e)
	return &Elements{a, e, Deg2rad(i), Deg2rad(Ω), Deg2rad(ω), M0, epoch, origin}
}

// NewElementsFromRV returns orbital elements from the R and V vectors.
// This is the one true way to change an orbit: perturb the state vector, then
// reconvert here. From Vallado's RV2COE (page 113), extended for hyperbolae
// with the signed, unwrapped true anomaly convention.
func NewElementsFromRV(R, V []float64, epoch time.Time, origin Body) *Elements {
	hVec := cross(R, V)
	if norm(hVec) < hMagε {
		// Radial/degenerate orbit: fall back to the reference normal so the
		// plane stays defined instead of going NaN.
		hVec = []float64{0, 0, hMagε}
	}
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - origin.μ/r
	var a float64
	if math.Abs(ξ) < origin.μ/(2*parabolicAMax*r) {
		// Numerically parabolic: clamp a to a large multiple of r rather than
		// letting it blow up to ±Inf.
		a = sign(-ξ) * parabolicAMax * r
	} else {
		a = -origin.μ / (2 * ξ)
	}
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-origin.μ/r)*R[i] - dot(R, V)*V[i]) / origin.μ
	}
	e := norm(eVec)
	e = clampParabolic(e, a)
	if (a < 0) != (e >= 1) {
		// Shape and energy disagree from float jitter on the boundary: let the
		// energy sign win.
		if a < 0 {
			e = 1 + eccentricityε
		} else {
			e = 1 - eccentricityε
		}
	}

	i := math.Acos(hVec[2] / norm(hVec))
	var Ω float64
	nodeRef := n
	if norm(n) < hMagε {
		// Equatorial: the node is undefined, use the reference X axis.
		Ω = 0
		nodeRef = []float64{1, 0, 0}
	} else {
		Ω = math.Acos(n[0] / norm(n))
		if n[1] < 0 {
			Ω = 2*math.Pi - Ω
		}
	}

	periRef := eVec
	var ω float64
	if e < eSnapε {
		// Circular: periapsis direction is undefined, snap it to the node.
		ω = 0
		periRef = nodeRef
	} else {
		ω = math.Acos(dot(nodeRef, eVec) / (norm(nodeRef) * e))
		if math.IsNaN(ω) {
			ω = 0
		}
		if eVec[2] < 0 {
			ω = 2*math.Pi - ω
		}
	}

	cosν := dot(periRef, R) / (norm(periRef) * r)
	if abscosν := math.Abs(cosν); abscosν > 1 && floats.EqualWithinAbs(abscosν, 1, 1e-12) {
		// Welcome to the edge case which took about 1.5 hours of my time.
		cosν = sign(cosν) // GTFO NaN!
	}
	ν := math.Acos(cosν)
	if e >= 1 {
		// Hyperbolic: signed, never wrapped. Negative means approaching
		// periapsis, positive departing.
		ν = sign(dot(R, V)) * ν
	} else if dot(R, V) < 0 {
		ν = 2*math.Pi - ν
	}

	// Fix rounding errors.
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω, 2*math.Pi)
	ω = math.Mod(ω, 2*math.Pi)

	return &Elements{a, e, i, Ω, ω, trueToMean(ν, e), epoch, origin}
}

// Radii2ae returns the semi major axis and the eccentricity from the radii.
func Radii2ae(rA, rP float64) (a, e float64) {
	if rA < rP {
		panic("periapsis cannot be greater than apoapsis")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}
