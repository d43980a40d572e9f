package sailsim

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

func newTestPredictor() *Predictor {
	return NewPredictor(NewTransitionManager(nil), nil)
}

func TestPredictCircularYear(t *testing.T) {
	p := newTestPredictor()
	p.Budget = 10 * time.Second // determinism over latency here
	start := testEpoch
	ship := Ship{Name: "probe", Orbit: NewElementsFromOE(AU, 0, 0, 0, 0, 0, start, Sun)}
	duration := 365 * 24 * time.Hour

	traj := p.Predict(ship, nil, SailConfig{}, start, duration)
	if traj.Truncated {
		t.Fatalf("coasting prediction truncated: %s", traj.Reason)
	}
	if len(traj.Points) < 2 {
		t.Fatalf("only %d samples", len(traj.Points))
	}
	last := traj.Points[len(traj.Points)-1]
	if !last.DT.Equal(start.Add(duration)) {
		t.Fatalf("horizon ends at %s, expected %s", last.DT, start.Add(duration))
	}
	// A circular orbit stays circular without thrust.
	for _, pt := range traj.Points {
		if !floats.EqualWithinAbs(norm(pt.R), AU, 1e4) {
			t.Fatalf("radius drifted to %f km at %s", norm(pt.R), pt.DT)
		}
		if !pt.Frame.IsHeliocentric() {
			t.Fatalf("frame switched to %s with no bodies around", pt.Frame)
		}
	}
	// 365 days of a 365.25-day orbit: nearly back at the start.
	if d := norm(sub(last.R, traj.Points[0].R)); d > 1e6 {
		t.Fatalf("ship %f km from closure after one year", d)
	}
}

func TestPredictNeverMutatesShip(t *testing.T) {
	p := newTestPredictor()
	start := testEpoch
	orbit := NewElementsFromOE(AU, 0, 0, 0, 0, 0, start, Sun)
	before := *orbit
	ship := Ship{Name: "probe", Orbit: orbit, SOICooldowns: map[string]time.Time{"Mars": start.Add(time.Hour)}}

	sail := SailConfig{Deployment: 1, Yaw: Deg2rad(35), Area: 10000, Mass: 500}
	p.Predict(ship, []Body{Venus, Mars}, sail, start, 30*24*time.Hour)

	if *ship.Orbit != before {
		t.Fatal("prediction mutated the live orbit")
	}
	if until := ship.SOICooldowns["Mars"]; !until.Equal(start.Add(time.Hour)) {
		t.Fatal("prediction mutated the live cooldowns")
	}
}

func TestPredictCacheIdempotent(t *testing.T) {
	p := newTestPredictor()
	start := testEpoch
	ship := Ship{Name: "probe", Orbit: NewElementsFromOE(AU, 0.05, 2, 10, 20, 30, start, Sun)}
	sail := SailConfig{Deployment: 0.5, Yaw: Deg2rad(35), Area: 10000, Mass: 500}

	traj1 := p.Predict(ship, nil, sail, start, 10*24*time.Hour)
	traj2 := p.Predict(ship, nil, sail, start, 10*24*time.Hour)
	if traj1 != traj2 {
		t.Fatal("identical inputs missed the cache")
	}

	// Sub-quantum jitter hashes identically.
	jittered := sail
	jittered.Yaw += 1e-9
	traj3 := p.Predict(ship, nil, jittered, start, 10*24*time.Hour)
	if traj3 != traj1 {
		t.Fatal("sub-quantum jitter defeated the cache")
	}

	// A real input change recomputes.
	turned := sail
	turned.Yaw += 0.1
	traj4 := p.Predict(ship, nil, turned, start, 10*24*time.Hour)
	if traj4 == traj1 {
		t.Fatal("different sail setting served from the cache")
	}

	p.InvalidateCache()
	traj5 := p.Predict(ship, nil, sail, start, 10*24*time.Hour)
	if traj5 == traj1 {
		t.Fatal("invalidated cache still serving the old trajectory")
	}
}

func TestPredictionHashQuantization(t *testing.T) {
	o := NewElementsFromOE(AU, 0.05, 2, 10, 20, 30, testEpoch, Sun)
	sail := SailConfig{Deployment: 0.5, Yaw: 0.25, Area: 10000, Mass: 500}
	h1 := predictionHash(*o, sail, testEpoch, time.Hour)

	jittered := sail
	jittered.Deployment += hashQuantum / 10
	if predictionHash(*o, jittered, testEpoch, time.Hour) != h1 {
		t.Fatal("sub-quantum change altered the hash")
	}
	jittered.Deployment += hashQuantum * 10
	if predictionHash(*o, jittered, testEpoch, time.Hour) == h1 {
		t.Fatal("super-quantum change kept the hash")
	}
	if predictionHash(*o, sail, testEpoch.Add(time.Hour), time.Hour) == h1 {
		t.Fatal("start time not folded into the hash")
	}
}

func TestPredictTruncatesOnMaxRange(t *testing.T) {
	p := newTestPredictor()
	p.MaxRadius = 1.5 * AU
	start := testEpoch
	ship := Ship{Name: "far", Orbit: NewElementsFromOE(2*AU, 0, 0, 0, 0, 0, start, Sun)}

	traj := p.Predict(ship, nil, SailConfig{}, start, 30*24*time.Hour)
	if !traj.Truncated || traj.Reason != TruncatedMaxRange {
		t.Fatalf("truncated=%v reason=%s", traj.Truncated, traj.Reason)
	}
	if len(traj.Points) == 0 {
		t.Fatal("truncation dropped all samples")
	}
}

func TestPredictTruncatesOnBudget(t *testing.T) {
	p := newTestPredictor()
	p.Budget = -time.Second
	start := testEpoch
	ship := Ship{Name: "slow", Orbit: NewElementsFromOE(AU, 0, 0, 0, 0, 0, start, Sun)}

	traj := p.Predict(ship, nil, SailConfig{}, start, 30*24*time.Hour)
	if !traj.Truncated || traj.Reason != TruncatedBudget {
		t.Fatalf("truncated=%v reason=%s", traj.Truncated, traj.Reason)
	}
	// A partial result is still a result.
	if len(traj.Points) < 2 {
		t.Fatalf("budget overrun returned %d samples", len(traj.Points))
	}
}

func TestPredictStepCap(t *testing.T) {
	p := newTestPredictor()
	start := testEpoch
	ship := Ship{Name: "probe", Orbit: NewElementsFromOE(AU, 0, 0, 0, 0, 0, start, Sun)}

	p.Budget = 10 * time.Second
	// A decade-long horizon must stay within the step cap.
	traj := p.Predict(ship, nil, SailConfig{}, start, 10*365*24*time.Hour)
	if len(traj.Points) > p.MaxSteps+1 {
		t.Fatalf("%d samples exceed the cap", len(traj.Points))
	}
	// And a tiny horizon still gets a usable sample count.
	tiny := p.Predict(ship, nil, SailConfig{}, start, time.Hour)
	if len(tiny.Points) < 17 {
		t.Fatalf("short horizon sampled only %d points", len(tiny.Points))
	}
}

func TestPredictSailSpiralsOut(t *testing.T) {
	p := newTestPredictor()
	p.Budget = 10 * time.Second
	start := testEpoch
	ship := Ship{Name: "sailer", Orbit: NewElementsFromOE(AU, 0, 0, 0, 0, 0, start, Sun)}
	sail := SailConfig{Deployment: 1, Yaw: Deg2rad(35), Area: 10000, Mass: 500}

	traj := p.Predict(ship, nil, sail, start, 90*24*time.Hour)
	if traj.Truncated {
		t.Fatalf("spiral truncated: %s", traj.Reason)
	}
	first := norm(traj.Points[0].R)
	last := norm(traj.Points[len(traj.Points)-1].R)
	if last <= first {
		t.Fatalf("sail spiral did not raise the orbit: %f -> %f km", first, last)
	}
}
