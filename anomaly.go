package sailsim

import "math"

const (
	// keplerε is the convergence tolerance of the Newton-Raphson Kepler solvers.
	keplerε = 1e-12
	// keplerMaxIter caps the solver iterations; past it the best estimate is returned.
	keplerMaxIter = 50
	// hyperAnomalyMax bounds |H| so that sinh/cosh stay far from float64 overflow (~710).
	hyperAnomalyMax = 650.0
	// tanhAsymptoteε detects tanh(H/2) saturation before the ν conversion clamps it.
	tanhAsymptoteε = 1e-12
)

// SolveEllipticKepler solves Kepler's equation M = E - e·sin(E) for the
// eccentric anomaly via Newton-Raphson. On non-convergence the best estimate is
// returned with converged set to false, never an error.
func SolveEllipticKepler(M, e float64) (E float64, converged bool) {
	// Vallado's starter: E0 = M ± e depending on which side of the orbit we are.
	if M > math.Pi || (M < 0 && M > -math.Pi) {
		E = M - e
	} else {
		E = M + e
	}
	for iter := 0; iter < keplerMaxIter; iter++ {
		sinE, cosE := math.Sincos(E)
		ΔE := (M - E + e*sinE) / (1 - e*cosE)
		E += ΔE
		if math.Abs(ΔE) < keplerε {
			return E, true
		}
	}
	solverDivergences.Inc()
	return E, false
}

// SolveHyperbolicKepler solves the hyperbolic Kepler equation
// M = e·sinh(H) - H, seeded with asinh(M/e). |H| is kept within
// hyperAnomalyMax so that the sinh/cosh evaluations cannot overflow.
func SolveHyperbolicKepler(M, e float64) (H float64, converged bool) {
	H = math.Asinh(M / e)
	for iter := 0; iter < keplerMaxIter; iter++ {
		ΔH := (M - e*math.Sinh(H) + H) / (e*math.Cosh(H) - 1)
		H += ΔH
		if math.Abs(H) > hyperAnomalyMax {
			H = sign(H) * hyperAnomalyMax
		}
		if math.Abs(ΔH) < keplerε {
			return H, true
		}
	}
	solverDivergences.Inc()
	return H, false
}

// EccentricToTrue converts the eccentric anomaly to a true anomaly in [0, 2π).
func EccentricToTrue(E, e float64) (ν float64) {
	sinE, cosE := math.Sincos(E)
	ν = math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e)
	if ν < 0 {
		ν += 2 * math.Pi
	}
	return
}

// TrueToEccentric converts a true anomaly to the eccentric anomaly.
func TrueToEccentric(ν, e float64) float64 {
	sinν2, cosν2 := math.Sincos(ν / 2)
	return 2 * math.Atan2(math.Sqrt(1-e)*sinν2, math.Sqrt(1+e)*cosν2)
}

// HyperbolicToTrue converts the hyperbolic anomaly to a signed true anomaly in
// (-νMax, +νMax): negative approaching periapsis, positive departing. It is
// never wrapped mod 2π. When tanh(H/2) has saturated, asymptotic is true and
// the caller decides whether the clamped value is acceptable (it is for
// display, it is not for physics without the straight-line fallback).
func HyperbolicToTrue(H, e float64) (ν float64, asymptotic bool) {
	t := math.Tanh(H / 2)
	if math.Abs(t) >= 1-tanhAsymptoteε {
		asymptotic = true
		t = sign(t) * (1 - tanhAsymptoteε)
	}
	ν = 2 * math.Atan(math.Sqrt((e+1)/(e-1))*t)
	return
}

// TrueToHyperbolic converts a signed true anomaly to the hyperbolic anomaly.
func TrueToHyperbolic(ν, e float64) float64 {
	t := math.Sqrt((e-1)/(e+1)) * math.Tan(ν/2)
	if math.Abs(t) >= 1 {
		// ν beyond the asymptote only happens from float jitter at ±νMax.
		t = sign(t) * (1 - tanhAsymptoteε)
	}
	return 2 * math.Atanh(t)
}

// EllipticMeanAnomaly returns M from the eccentric anomaly.
func EllipticMeanAnomaly(E, e float64) float64 {
	return E - e*math.Sin(E)
}

// HyperbolicMeanAnomaly returns M from the hyperbolic anomaly.
func HyperbolicMeanAnomaly(H, e float64) float64 {
	if math.Abs(H) > hyperAnomalyMax {
		H = sign(H) * hyperAnomalyMax
	}
	return e*math.Sinh(H) - H
}

// MaxTrueAnomaly returns the asymptotic true anomaly limit of a hyperbola.
func MaxTrueAnomaly(e float64) float64 {
	return math.Acos(-1 / e)
}
