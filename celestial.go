package sailsim

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soniakeys/meeus/julian"
	"github.com/soniakeys/meeus/planetposition"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8
)

// J2000 is the reference epoch of the built-in mean-element ephemeris.
var J2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// meanElements are J2000 heliocentric mean elements, angles in degrees.
type meanElements struct {
	e, i, Ω, ω, M0 float64
}

// Body defines a celestial object: the Sun or one of its planets.
type Body struct {
	Name   string
	Radius float64 // km
	a      float64 // mean heliocentric semi-major axis, km
	μ      float64 // km³/s²
	SOI    float64 // km; -1 for the Sun
	Parent string  // empty for the Sun
	mean   *meanElements
	pp     *planetposition.V87Planet
}

// GM returns μ (which is unexported because it's a lowercase letter).
func (b Body) GM() float64 {
	return b.μ
}

// MeanOrbitRadius returns the mean heliocentric orbit radius of the body.
func (b Body) MeanOrbitRadius() float64 {
	return b.a
}

// String implements the Stringer interface.
func (b Body) String() string {
	return b.Name + " body"
}

// Equals returns whether the provided body is the same.
func (b *Body) Equals(o Body) bool {
	return b.Name == o.Name && b.Radius == o.Radius && b.a == o.a && b.μ == o.μ && b.SOI == o.SOI
}

// HelioState returns the heliocentric state of this body at a given time.
// With VSOP87 enabled in the configuration the meeus planetary theory is used;
// otherwise the state comes from the built-in J2000 mean elements, which is
// plenty for patched-conics work.
func (b *Body) HelioState(dt time.Time) StateVector {
	if b.Name == Sun.Name {
		return StateVector{R: []float64{0, 0, 0}, V: []float64{0, 0, 0}, Frame: Heliocentric()}
	}
	if simConfig().VSOP87 {
		if b.pp == nil {
			var vsopPosition int
			switch b.Name {
			case "Venus":
				vsopPosition = 2
			case "Earth":
				vsopPosition = 3
			case "Mars":
				vsopPosition = 4
			case "Jupiter":
				vsopPosition = 5
			default:
				panic(fmt.Errorf("no VSOP87 theory for %s", b.Name))
			}
			planet, err := planetposition.LoadPlanetPath(vsopPosition-1, simConfig().VSOP87Dir)
			if err != nil {
				panic(fmt.Errorf("could not load planet number %d: %s", vsopPosition, err))
			}
			b.pp = planet
		}
		l, bb, r := b.pp.Position2000(julian.TimeToJD(dt))
		r *= AU
		v := math.Sqrt(2*Sun.μ/r - Sun.μ/b.a)
		R, V := make([]float64, 3), make([]float64, 3)
		sB, cB := math.Sincos(bb.Rad())
		sL, cL := math.Sincos(l.Rad())
		R[0] = r * cB * cL
		R[1] = r * cB * sL
		R[2] = r * sB
		vDir := unit(cross(R, []float64{0, 0, -1}))
		for i := 0; i < 3; i++ {
			V[i] = v * vDir[i]
		}
		return StateVector{R: R, V: V, Frame: Heliocentric()}
	}
	o := NewElements(b.a, b.mean.e, b.mean.i, b.mean.Ω, b.mean.ω, b.mean.M0, J2000, Sun)
	return o.StateAt(dt)
}

// HelioOrbit returns the heliocentric mean-element orbit of this body.
func (b *Body) HelioOrbit() *Elements {
	if b.Name == Sun.Name {
		panic("the Sun does not orbit itself")
	}
	return NewElements(b.a, b.mean.e, b.mean.i, b.mean.Ω, b.mean.ω, b.mean.M0, J2000, Sun)
}

// BodyFromString returns the body from its name.
func BodyFromString(name string) (Body, error) {
	switch strings.ToLower(name) {
	case "sun":
		return Sun, nil
	case "venus":
		return Venus, nil
	case "earth":
		return Earth, nil
	case "mars":
		return Mars, nil
	case "jupiter":
		return Jupiter, nil
	default:
		return Body{}, fmt.Errorf("undefined body '%s'", name)
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = Body{Name: "Sun", Radius: 695700, a: -1, μ: 1.32712440017987e11, SOI: -1}

// Venus is poisonous.
var Venus = Body{Name: "Venus", Radius: 6051.8, a: 108208601, μ: 3.24858599e5, SOI: 0.616e6, Parent: "Sun",
	mean: &meanElements{e: 0.0068, i: 3.39458, Ω: 76.680, ω: 54.884, M0: 50.115}}

// Earth is home.
var Earth = Body{Name: "Earth", Radius: 6378.1363, a: 149598023, μ: 3.98600433e5, SOI: 924645.0, Parent: "Sun",
	mean: &meanElements{e: 0.0167, i: 0.00005, Ω: 348.739, ω: 114.208, M0: 357.517}}

// Mars is the vacation place.
var Mars = Body{Name: "Mars", Radius: 3396.19, a: 227939282.5616, μ: 4.28283100e4, SOI: 576000, Parent: "Sun",
	mean: &meanElements{e: 0.0934, i: 1.850, Ω: 49.558, ω: 286.502, M0: 19.412}}

// Jupiter is big.
var Jupiter = Body{Name: "Jupiter", Radius: 71492.0, a: 778298361, μ: 1.266865361e8, SOI: 48.2e6, Parent: "Sun",
	mean: &meanElements{e: 0.0484, i: 1.30327, Ω: 100.464, ω: 273.867, M0: 19.650}}
