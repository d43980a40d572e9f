package sailsim

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestBodyFromString(t *testing.T) {
	for _, name := range []string{"Sun", "venus", "EARTH", "mars", "Jupiter"} {
		b, err := BodyFromString(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if b.GM() <= 0 {
			t.Fatalf("%s has μ=%f", name, b.GM())
		}
	}
	if _, err := BodyFromString("Pluto"); err == nil {
		t.Fatal("unknown body accepted")
	}
}

func TestHelioStateSun(t *testing.T) {
	sv := Sun.HelioState(testEpoch)
	if norm(sv.R) != 0 || norm(sv.V) != 0 {
		t.Fatalf("the Sun moved: %v %v", sv.R, sv.V)
	}
	if !sv.Frame.IsHeliocentric() {
		t.Fatal("the Sun left its own frame")
	}
}

func TestHelioStatePlanets(t *testing.T) {
	for _, b := range []Body{Venus, Earth, Mars, Jupiter} {
		sv := b.HelioState(testEpoch)
		if !sv.Finite() {
			t.Fatalf("%s: non-finite state", b.Name)
		}
		// Mean-element ephemeris: the radius stays within the conic bounds.
		r := norm(sv.R)
		o := b.HelioOrbit()
		if r < o.Periapsis()-distanceε || r > o.Apoapsis()+distanceε {
			t.Fatalf("%s at %f km, outside [%f, %f]", b.Name, r, o.Periapsis(), o.Apoapsis())
		}
		// And the speed is near the circular speed of its orbit.
		vCirc := CircularVelocity(b.MeanOrbitRadius(), Sun)
		if !floats.EqualWithinRel(norm(sv.V), vCirc, 0.15) {
			t.Fatalf("%s at %f km/s, circular is %f", b.Name, norm(sv.V), vCirc)
		}
	}
}

func TestHelioStateAdvances(t *testing.T) {
	// A year moves the Earth; a day barely does. Sanity against a frozen
	// ephemeris bug.
	r0 := Earth.HelioState(testEpoch).R
	rHalfYear := Earth.HelioState(testEpoch.Add(182 * 24 * time.Hour)).R
	if norm(sub(rHalfYear, r0)) < AU {
		t.Fatal("Earth barely moved in half a year")
	}
	rDay := Earth.HelioState(testEpoch.Add(24 * time.Hour)).R
	d := norm(sub(rDay, r0))
	// One day of orbital motion is about 2.5 million km of arc.
	if d < 1e6 || d > 5e6 {
		t.Fatalf("Earth moved %f km in a day", d)
	}
}

func TestBodyEquals(t *testing.T) {
	if !Earth.Equals(Earth) {
		t.Fatal("Earth is not itself")
	}
	if Earth.Equals(Mars) {
		t.Fatal("Earth equals Mars")
	}
}

func TestSOIOrdering(t *testing.T) {
	// The SOI radii must sit between the body radius and its orbit radius;
	// a mistake here silently breaks every transition test downstream.
	for _, b := range []Body{Venus, Earth, Mars, Jupiter} {
		if b.SOI <= b.Radius {
			t.Fatalf("%s SOI %f below its own surface", b.Name, b.SOI)
		}
		if b.SOI >= b.a {
			t.Fatalf("%s SOI %f beyond its orbit", b.Name, b.SOI)
		}
	}
	if Sun.SOI != -1 {
		t.Fatal("the Sun must advertise no SOI")
	}
}
