package sailsim

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

func helioRel(b Body, at time.Time, relR, relV []float64) StateVector {
	bState := b.HelioState(at)
	return StateVector{R: add(bState.R, relR), V: add(bState.V, relV), Frame: Heliocentric()}
}

func TestSOIEntry(t *testing.T) {
	tm := NewTransitionManager(nil)
	at := testEpoch
	relPrev := []float64{2 * Earth.SOI, 0, 0}
	relCur := []float64{0.5 * Earth.SOI, 0, 0}
	relV := []float64{0, 3, 0}
	prev := helioRel(Earth, at, relPrev, relV)
	cur := helioRel(Earth, at, relCur, relV)

	trans, err := tm.Check(prev, cur, []Body{Earth}, at, map[string]time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if trans == nil || !trans.Entry {
		t.Fatal("expected an SOI entry")
	}
	if trans.Body.Name != Earth.Name {
		t.Fatalf("entered %s", trans.Body.Name)
	}
	if trans.State.Frame != InSOI(Earth) {
		t.Fatalf("post-entry frame %s", trans.State.Frame)
	}
	if trans.Forced {
		t.Fatal("clean flyby flagged as forced capture")
	}
	// The frame switch moves the origin, never the ship: the relative state
	// must be exactly the heliocentric state minus the body state.
	if !vectorsEqual(trans.State.R, relCur, 1e-6) {
		t.Fatalf("position discontinuity across entry: %v vs %v", trans.State.R, relCur)
	}
	if !vectorsEqual(trans.State.V, relV, 1e-9) {
		t.Fatalf("velocity discontinuity across entry: %v vs %v", trans.State.V, relV)
	}
	// 3 km/s at half an SOI from Earth is well above escape.
	if trans.Class != Hyperbolic {
		t.Fatalf("expected a hyperbolic capture orbit, got %s", trans.Class)
	}
}

func TestSOIEntrySweptSegment(t *testing.T) {
	// Both endpoints outside the sphere but the segment pierces it: a fast
	// flyby must not be missed just because the sample points straddle it.
	tm := NewTransitionManager(nil)
	at := testEpoch
	relV := []float64{0, 50, 0}
	prev := helioRel(Earth, at, []float64{0.2 * Earth.SOI, -1.5 * Earth.SOI, 0}, relV)
	cur := helioRel(Earth, at, []float64{0.2 * Earth.SOI, 1.5 * Earth.SOI, 0}, relV)

	trans, err := tm.Check(prev, cur, []Body{Earth}, at, map[string]time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if trans == nil {
		t.Fatal("piercing segment missed")
	}
}

func TestSOIEntryCooldown(t *testing.T) {
	tm := NewTransitionManager(nil)
	at := testEpoch
	relV := []float64{0, 3, 0}
	prev := helioRel(Earth, at, []float64{2 * Earth.SOI, 0, 0}, relV)
	cur := helioRel(Earth, at, []float64{0.5 * Earth.SOI, 0, 0}, relV)

	cooldowns := map[string]time.Time{Earth.Name: at.Add(time.Hour)}
	trans, err := tm.Check(prev, cur, []Body{Earth}, at, cooldowns)
	if err != nil {
		t.Fatal(err)
	}
	if trans != nil {
		t.Fatal("cooldown did not suppress re-entry")
	}
	// An elapsed cooldown no longer suppresses.
	cooldowns[Earth.Name] = at.Add(-time.Second)
	trans, err = tm.Check(prev, cur, []Body{Earth}, at, cooldowns)
	if err != nil {
		t.Fatal(err)
	}
	if trans == nil {
		t.Fatal("elapsed cooldown still suppressing entry")
	}
}

func TestSOIEntryDominantBody(t *testing.T) {
	// Two bodies on the same orbit, overlapping spheres: the stronger pull
	// μ/r² wins, not the slice order.
	mean := &meanElements{e: 0.01, i: 1.0, Ω: 10, ω: 20, M0: 30}
	weak := Body{Name: "Weak", Radius: 1000, a: 1.0e8, μ: 1e5, SOI: 2e6, Parent: "Sun", mean: mean}
	strong := Body{Name: "Strong", Radius: 1000, a: 1.0e8, μ: 4e5, SOI: 2e6, Parent: "Sun", mean: mean}

	tm := NewTransitionManager(nil)
	at := testEpoch
	relV := []float64{0, 3, 0}
	prev := helioRel(weak, at, []float64{3e6, 0, 0}, relV)
	cur := helioRel(weak, at, []float64{1e5, 0, 0}, relV)

	for _, bodies := range [][]Body{{weak, strong}, {strong, weak}} {
		trans, err := tm.Check(prev, cur, bodies, at, map[string]time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		if trans == nil {
			t.Fatal("overlapping entry missed")
		}
		if trans.Body.Name != strong.Name {
			t.Fatalf("dominant body is %s, expected %s", trans.Body.Name, strong.Name)
		}
	}
}

func TestSOICollisionGuard(t *testing.T) {
	tm := NewTransitionManager(nil)
	at := testEpoch
	// A 40 km/s arrival aimed nearly dead-center: periapsis far below the
	// surface.
	relV := []float64{-40, 0.1, 0}
	prev := helioRel(Earth, at, []float64{2e6, 0, 0}, relV)
	cur := helioRel(Earth, at, []float64{4e5, 0, 0}, relV)

	trans, err := tm.Check(prev, cur, []Body{Earth}, at, map[string]time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if trans == nil || !trans.Forced {
		t.Fatal("collision course not forced into a safe capture")
	}
	rSafe := Earth.Radius * tm.CollisionMargin
	if !floats.EqualWithinAbs(norm(trans.State.R), rSafe, 1) {
		t.Fatalf("forced orbit radius %f, expected %f", norm(trans.State.R), rSafe)
	}
	if !floats.EqualWithinAbs(trans.Elements.A(), rSafe, distanceε) {
		t.Fatalf("forced orbit a=%f, expected circular at %f", trans.Elements.A(), rSafe)
	}
	if !floats.EqualWithinAbs(norm(trans.State.V), CircularVelocity(rSafe, Earth), 1e-3) {
		t.Fatalf("forced orbit speed %f, expected circular speed", norm(trans.State.V))
	}
}

func TestSOIExitHysteresis(t *testing.T) {
	tm := NewTransitionManager(nil)
	at := testEpoch
	inside := StateVector{R: []float64{Earth.SOI * 1.01, 0, 0}, V: []float64{0, 1, 0}, Frame: InSOI(Earth)}

	// Just past the boundary but within hysteresis: no exit yet.
	trans, err := tm.Check(inside, inside, []Body{Earth}, at, map[string]time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if trans != nil {
		t.Fatal("exited within the hysteresis band")
	}

	outside := StateVector{R: []float64{Earth.SOI * 1.03, 0, 0}, V: []float64{0, 1, 0}, Frame: InSOI(Earth)}
	trans, err = tm.Check(outside, outside, []Body{Earth}, at, map[string]time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if trans == nil || trans.Entry {
		t.Fatal("expected an SOI exit")
	}
	if !trans.State.Frame.IsHeliocentric() {
		t.Fatalf("post-exit frame %s", trans.State.Frame)
	}
	// Continuity again: heliocentric = relative + body.
	earthState := Earth.HelioState(at)
	if !vectorsEqual(trans.State.R, add(outside.R, earthState.R), 1e-6) {
		t.Fatal("position discontinuity across exit")
	}
	if !trans.CooldownUntil.Equal(at.Add(tm.Cooldown)) {
		t.Fatalf("cooldown until %s, expected %s", trans.CooldownUntil, at.Add(tm.Cooldown))
	}
}

func TestSOIFrameMismatch(t *testing.T) {
	tm := NewTransitionManager(nil)
	a := StateVector{R: []float64{1, 0, 0}, V: []float64{0, 1, 0}, Frame: Heliocentric()}
	b := StateVector{R: []float64{1, 0, 0}, V: []float64{0, 1, 0}, Frame: InSOI(Earth)}
	if _, err := tm.Check(a, b, []Body{Earth}, testEpoch, map[string]time.Time{}); err == nil {
		t.Fatal("mixed frames accepted")
	}
}

func TestSegmentHitsSphere(t *testing.T) {
	cases := []struct {
		p0, p1 []float64
		radius float64
		hit    bool
	}{
		{[]float64{2, 0, 0}, []float64{3, 0, 0}, 1, false},   // fully outside
		{[]float64{2, 0, 0}, []float64{0.5, 0, 0}, 1, true},  // ends inside
		{[]float64{-2, 0.5, 0}, []float64{2, 0.5, 0}, 1, true}, // pierces
		{[]float64{-2, 1.5, 0}, []float64{2, 1.5, 0}, 1, false},
		{[]float64{1, 0, 0}, []float64{1, 0, 0}, 1, true}, // degenerate on the surface
	}
	for i, tc := range cases {
		if got := segmentHitsSphere(tc.p0, tc.p1, tc.radius); got != tc.hit {
			t.Fatalf("case %d: got %v", i, got)
		}
	}
}

func TestExtremeEccentricAndLinearState(t *testing.T) {
	tm := NewTransitionManager(nil)
	if tm.ExtremeEcc <= 1 {
		t.Fatalf("nonsensical extreme eccentricity limit %f", tm.ExtremeEcc)
	}
	mild := NewElementsFromOE(-50000, 1.5, 12, 80, 20, 0, testEpoch, Earth)
	if tm.ExtremeEccentric(*mild) {
		t.Fatal("a mild hyperbola flagged extreme")
	}
	extreme := Elements{-1e5, tm.ExtremeEcc * 2, 0.1, 0, 0, 0, testEpoch, Earth}
	if !tm.ExtremeEccentric(extreme) {
		t.Fatal("extreme hyperbola not flagged")
	}

	anchor := StateVector{R: []float64{1000, 0, 0}, V: []float64{1, 2, 0}, Frame: Heliocentric()}
	sv := LinearState(anchor, 10*time.Second)
	if !vectorsEqual(sv.R, []float64{1010, 20, 0}, 1e-9) {
		t.Fatalf("linear state at %v", sv.R)
	}
	if !vectorsEqual(sv.V, anchor.V, 0) {
		t.Fatal("linear state changed the velocity")
	}
}
