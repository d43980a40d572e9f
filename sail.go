package sailsim

import "math"

const (
	// solarPressure1AU is the solar radiation pressure at 1 AU in N/m².
	solarPressure1AU = 4.56e-6
	// sailReflectivity is the momentum factor of an ideal reflective sail.
	sailReflectivity = 2.0
)

// SailConfig is the propulsion configuration of a ship. It is a plain value
// object owned by the caller: the engine reads it per call and never stores it.
type SailConfig struct {
	Deployment float64 // deployed fraction of the sail area, in [0, 1]
	Yaw        float64 // sail normal yaw off the sun line, radians
	Pitch      float64 // sail normal pitch off the orbit plane, radians
	Area       float64 // full sail area, m²
	Mass       float64 // total ship mass, kg
}

// Disabled returns whether the sail produces no thrust at all.
func (sc SailConfig) Disabled() bool {
	return sc.Deployment <= 0 || sc.Area <= 0 || sc.Mass <= 0
}

// normalRCN is the sail normal in the radial/along-track/normal frame.
func (sc SailConfig) normalRCN() []float64 {
	sy, cy := math.Sincos(sc.Yaw)
	sp, cp := math.Sincos(sc.Pitch)
	return []float64{cy * cp, sy * cp, sp}
}

// AccelRCN returns the sail acceleration in the RCN frame in km/s², given the
// current heliocentric distance in km. The radial axis is the sun line, so the
// cone angle falls straight out of the normal's radial component. A sail
// turned past edge-on cannot push back toward the Sun: that returns zero.
func (sc SailConfig) AccelRCN(rHelio float64) []float64 {
	if sc.Disabled() || rHelio <= 0 {
		return []float64{0, 0, 0}
	}
	n := sc.normalRCN()
	cosθ := n[0]
	if cosθ <= 0 {
		return []float64{0, 0, 0}
	}
	ratio := AU / rHelio
	// N/m² × m²/kg = m/s², converted to km/s².
	mag := sailReflectivity * solarPressure1AU * ratio * ratio *
		(sc.Area * sc.Deployment / sc.Mass) * cosθ * cosθ / 1e3
	return scale(mag, n)
}
