package sailsim

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// Transition describes a sphere-of-influence frame switch. State and Elements
// are expressed in the post-transition frame and describe the exact same
// physical position and velocity as before the switch: frame changes shift the
// origin, never the ship.
type Transition struct {
	Body          Body
	Entry         bool
	At            time.Time
	State         StateVector
	Elements      *Elements
	Class         OrbitClass
	Forced        bool      // collision guard replaced the state with a safe circular orbit
	CooldownUntil time.Time // exits only: re-entry to Body suppressed until then
}

// TransitionManager detects SOI entries and exits and produces the frame
// conversions. It is stateless with respect to ships: the per-body cooldown
// bookkeeping lives on the Ship and is passed in per call, so the same manager
// serves the live fleet and any number of prediction copies.
type TransitionManager struct {
	Hysteresis      float64 // exit radius factor, > 1, prevents boundary oscillation
	Cooldown        time.Duration
	ExtremeEcc      float64
	CollisionMargin float64
	logger          kitlog.Logger
}

// NewTransitionManager returns a manager with the configured tunables.
func NewTransitionManager(logger kitlog.Logger) *TransitionManager {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	c := simConfig()
	return &TransitionManager{
		Hysteresis:      c.Hysteresis,
		Cooldown:        c.Cooldown,
		ExtremeEcc:      c.ExtremeEcc,
		CollisionMargin: c.CollisionMargin,
		logger:          logger,
	}
}

// Check tests one step of motion (prev to cur, both in the same frame) for an
// SOI boundary crossing at time `at`. It returns nil when no transition
// applies. cooldowns maps body names to the time until which re-entry is
// suppressed; entries are consulted per body, never globally.
func (tm *TransitionManager) Check(prev, cur StateVector, bodies []Body, at time.Time, cooldowns map[string]time.Time) (*Transition, error) {
	if err := sameFrame("TransitionManager.Check", prev, cur); err != nil {
		return nil, err
	}
	if cur.Frame.IsHeliocentric() {
		return tm.checkEntry(prev, cur, bodies, at, cooldowns)
	}
	return tm.checkExit(cur, bodies, at)
}

func (tm *TransitionManager) checkEntry(prev, cur StateVector, bodies []Body, at time.Time, cooldowns map[string]time.Time) (*Transition, error) {
	var best *Body
	var bestPull float64
	var bestRel StateVector
	for bIdx := range bodies {
		b := &bodies[bIdx]
		if b.SOI <= 0 {
			continue
		}
		if until, ok := cooldowns[b.Name]; ok && at.Before(until) {
			continue
		}
		bState := b.HelioState(at)
		relPrev := sub(prev.R, bState.R)
		relCur := sub(cur.R, bState.R)
		// Swept test against the whole step, not just the endpoint: a fast
		// flyby can pierce the sphere and leave again within one step.
		if !segmentHitsSphere(relPrev, relCur, b.SOI) {
			continue
		}
		// Overlapping spheres: the dominant body is the strongest pull μ/r²,
		// not whichever comes first in the caller's slice.
		r := norm(relCur)
		if r < 1 {
			r = 1
		}
		pull := b.μ / (r * r)
		if best == nil || pull > bestPull {
			best = b
			bestPull = pull
			bestRel = StateVector{R: relCur, V: sub(cur.V, bState.V), Frame: InSOI(*b)}
		}
	}
	if best == nil {
		return nil, nil
	}
	el := NewElementsFromRV(bestRel.R, bestRel.V, at, *best)
	forced := false
	// a(1-e) is the periapsis radius for elliptic and hyperbolic alike.
	if el.Periapsis() < best.Radius*tm.CollisionMargin {
		// Collision course: force a safe circular orbit at the margin radius.
		// Same state-vector discipline as thrusting: build R,V then reconvert,
		// never edit elements in place.
		el = tm.forceCircular(*best, bestRel, at)
		bestRel = el.StateAt(at)
		forced = true
		forcedCaptures.Inc()
	}
	soiTransitions.WithLabelValues("entry").Inc()
	tm.logger.Log("level", "info", "subsys", "soi", "event", "entry", "body", best.Name,
		"class", el.Class().String(), "e", el.Ecc(), "forced", forced, "dt", at)
	return &Transition{
		Body:     *best,
		Entry:    true,
		At:       at,
		State:    bestRel,
		Elements: el,
		Class:    el.Class(),
		Forced:   forced,
	}, nil
}

func (tm *TransitionManager) checkExit(cur StateVector, bodies []Body, at time.Time) (*Transition, error) {
	b, err := findBody(bodies, cur.Frame.Center)
	if err != nil {
		return nil, err
	}
	// Hysteresis: exit only once clearly outside, else a ship skimming the
	// boundary flip-flops frames every step.
	if norm(cur.R) <= b.SOI*tm.Hysteresis {
		return nil, nil
	}
	bState := b.HelioState(at)
	helio := StateVector{R: add(cur.R, bState.R), V: add(cur.V, bState.V), Frame: Heliocentric()}
	el := NewElementsFromRV(helio.R, helio.V, at, Sun)
	soiTransitions.WithLabelValues("exit").Inc()
	tm.logger.Log("level", "info", "subsys", "soi", "event", "exit", "body", b.Name, "dt", at)
	return &Transition{
		Body:          b,
		Entry:         false,
		At:            at,
		State:         helio,
		Elements:      el,
		Class:         el.Class(),
		CooldownUntil: at.Add(tm.Cooldown),
	}, nil
}

// ExtremeEccentric reports whether the orbit sits beyond the configured
// eccentricity limit, past which the anomaly formulas operate too close to the
// hyperbola's asymptote to be trusted.
func (tm *TransitionManager) ExtremeEccentric(o Elements) bool {
	return o.e > tm.ExtremeEcc
}

// LinearState approximates motion on an extreme-eccentricity segment as a
// straight line at the anchor velocity. The error bound of this approximation
// is unmeasured; the tunable lives in the configuration for that reason.
func LinearState(anchor StateVector, since time.Duration) StateVector {
	dt := since.Seconds()
	return StateVector{
		R:     add(anchor.R, scale(dt, anchor.V)),
		V:     anchor.V,
		Frame: anchor.Frame,
	}
}

// forceCircular solves for the circular velocity at the safety-margin radius
// along the current radial direction, in the current orbital plane.
func (tm *TransitionManager) forceCircular(b Body, rel StateVector, at time.Time) *Elements {
	rSafe := b.Radius * tm.CollisionMargin
	rHat := unit(rel.R)
	h := cross(rel.R, rel.V)
	if norm(h) < hMagε {
		h = cross([]float64{0, 0, 1}, rel.R)
		if norm(h) < hMagε {
			h = []float64{0, 0, 1}
		}
	}
	R := scale(rSafe, rHat)
	V := scale(math.Sqrt(b.μ/rSafe), unit(cross(unit(h), rHat)))
	return NewElementsFromRV(R, V, at, b)
}

// segmentHitsSphere returns whether the segment p0→p1 comes within radius of
// the origin.
func segmentHitsSphere(p0, p1 []float64, radius float64) bool {
	d := sub(p1, p0)
	dd := dot(d, d)
	s := 0.0
	if dd > 0 {
		s = -dot(p0, d) / dd
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
	}
	closest := add(p0, scale(s, d))
	return norm(closest) <= radius
}

func findBody(bodies []Body, name string) (Body, error) {
	for _, b := range bodies {
		if b.Name == name {
			return b, nil
		}
	}
	return Body{}, fmt.Errorf("body '%s' not in the provided body set", name)
}
