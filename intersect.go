package sailsim

import (
	"math"
	"sort"
	"time"
)

// EventClass classifies an intersection event.
type EventClass uint8

const (
	// Approaching: the ship-target separation is shrinking across the crossing.
	Approaching EventClass = iota + 1
	// Receding: the separation is growing across the crossing.
	Receding
	// ClosestApproach: local minimum of the ship-target separation.
	ClosestApproach
)

func (c EventClass) String() string {
	switch c {
	case Approaching:
		return "approaching"
	case Receding:
		return "receding"
	case ClosestApproach:
		return "closest-approach"
	}
	panic("cannot stringify unknown event class")
}

// IntersectionEvent is a crossing of, or closest approach to, a target body's
// orbit along a predicted trajectory.
type IntersectionEvent struct {
	Target     string
	DT         time.Time
	ShipR      []float64
	BodyR      []float64
	InPlane    float64 // separation component in the target's orbital plane, km
	OutOfPlane float64 // separation component along the target's orbit normal, km
	Class      EventClass
	Distance   float64 // total separation, km
}

// DetectIntersections scans the heliocentric segments of a trajectory against
// each target's mean orbital radius and also reports the true closest approach
// per target. The scan is bounded by the configured wall-clock budget: on
// overrun the events found so far are returned rather than blocking the tick.
func DetectIntersections(traj *Trajectory, bodies []Body, ref time.Time) []IntersectionEvent {
	budget := simConfig().IntersectionBudget
	deadline := time.Now().Add(budget)
	var events []IntersectionEvent

scan:
	for bIdx := range bodies {
		b := &bodies[bIdx]
		if b.Name == Sun.Name || b.a <= 0 {
			continue
		}
		targetR := b.a
		bestDist := math.Inf(1)
		var best *IntersectionEvent

		for i := 0; i+1 < len(traj.Points); i++ {
			if time.Now().After(deadline) {
				break scan
			}
			p0, p1 := traj.Points[i], traj.Points[i+1]
			if !p0.Frame.IsHeliocentric() || !p1.Frame.IsHeliocentric() {
				continue
			}
			r0, r1 := norm(p0.R), norm(p1.R)

			// Inclusive comparison: a segment endpoint exactly on the target
			// radius is a crossing. Strict inequalities intermittently drop
			// exact touches under float jitter.
			if (r0-targetR)*(r1-targetR) <= 0 {
				s := 0.5 // equal endpoint radii: the midpoint is as good as any
				if r0 != r1 {
					s = (targetR - r0) / (r1 - r0)
				}
				events = append(events, crossingEvent(b, p0, p1, s))
			}

			// True closest approach between the two linearly-interpolated
			// position curves over s in [0,1].
			if ev, ok := closestApproach(b, p0, p1); ok && ev.Distance < bestDist {
				bestDist = ev.Distance
				best = &ev
			}
		}
		if best != nil {
			events = append(events, *best)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].DT.Equal(events[j].DT) {
			// Deterministic tie-break so depth-equal crossings never reorder
			// across runs.
			return events[i].Target < events[j].Target
		}
		return events[i].DT.Before(events[j].DT)
	})
	return events
}

func crossingEvent(b *Body, p0, p1 TrajectoryPoint, s float64) IntersectionEvent {
	at := lerpTime(p0.DT, p1.DT, s)
	shipR := lerpVec(p0.R, p1.R, s)
	bState := b.HelioState(at)
	inP, outP, dist := planeSplit(b, sub(shipR, bState.R))
	class := Approaching
	d0 := norm(sub(p0.R, bState.R))
	d1 := norm(sub(p1.R, bState.R))
	if d1 > d0 {
		class = Receding
	}
	return IntersectionEvent{
		Target:     b.Name,
		DT:         at,
		ShipR:      shipR,
		BodyR:      bState.R,
		InPlane:    inP,
		OutOfPlane: outP,
		Class:      class,
		Distance:   dist,
	}
}

// closestApproach minimizes |Δ(s)|² where Δ is the difference of the two
// linearly-interpolated position curves over the segment.
func closestApproach(b *Body, p0, p1 TrajectoryPoint) (IntersectionEvent, bool) {
	b0 := b.HelioState(p0.DT)
	b1 := b.HelioState(p1.DT)
	d0 := sub(p0.R, b0.R)
	dd := sub(sub(p1.R, b1.R), d0)
	qa := dot(dd, dd)
	s := 0.0
	if qa > 1e-9 {
		s = -dot(d0, dd) / qa
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}
	} // degenerate quadratic (near-zero relative motion): keep s=0

	at := lerpTime(p0.DT, p1.DT, s)
	shipR := lerpVec(p0.R, p1.R, s)
	bodyR := lerpVec(b0.R, b1.R, s)
	inP, outP, dist := planeSplit(b, sub(shipR, bodyR))
	return IntersectionEvent{
		Target:     b.Name,
		DT:         at,
		ShipR:      shipR,
		BodyR:      bodyR,
		InPlane:    inP,
		OutOfPlane: outP,
		Class:      ClosestApproach,
		Distance:   dist,
	}, true
}

// planeSplit decomposes a separation vector into the target's orbital plane
// and its normal.
func planeSplit(b *Body, sep []float64) (inPlane, outOfPlane, dist float64) {
	o := b.HelioOrbit()
	nHat := PQW2ECI(o.i, o.ω, o.Ω, []float64{0, 0, 1})
	outOfPlane = dot(sep, nHat)
	dist = norm(sep)
	inSq := dist*dist - outOfPlane*outOfPlane
	if inSq < 0 {
		inSq = 0
	}
	inPlane = math.Sqrt(inSq)
	return
}

func lerpVec(a, b []float64, s float64) []float64 {
	return []float64{a[0] + s*(b[0]-a[0]), a[1] + s*(b[1]-a[1]), a[2] + s*(b[2]-a[2])}
}

func lerpTime(t0, t1 time.Time, s float64) time.Time {
	return t0.Add(time.Duration(s * float64(t1.Sub(t0))))
}
