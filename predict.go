package sailsim

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	kitlog "github.com/go-kit/kit/log"
)

// Ship is a vehicle of the fleet: its orbit, the frame that orbit lives in
// (the orbit's origin body), and the SOI bookkeeping. The sail configuration
// is deliberately not here: it is owned by the propulsion collaborator and
// handed to the engine per call.
type Ship struct {
	Name  string
	Orbit *Elements
	// SOICooldowns suppresses re-entry into a body's SOI until the given
	// time, per body, independently of other bodies.
	SOICooldowns   map[string]time.Time
	LastTransition time.Time
}

// cloneCooldowns copies the bookkeeping so prediction copies never write into
// the live ship.
func (s Ship) cloneCooldowns() map[string]time.Time {
	out := make(map[string]time.Time, len(s.SOICooldowns))
	for k, v := range s.SOICooldowns {
		out[k] = v
	}
	return out
}

// TruncationReason explains why a trajectory ends before its horizon.
type TruncationReason uint8

const (
	// NotTruncated marks a complete trajectory.
	NotTruncated TruncationReason = iota
	// TruncatedNonFinite: a NaN or Infinity appeared; the last good sample closes the trajectory.
	TruncatedNonFinite
	// TruncatedMaxRange: the ship left the maximum heliocentric radius.
	TruncatedMaxRange
	// TruncatedBudget: the wall-clock budget ran out; the result is partial.
	TruncatedBudget
)

func (r TruncationReason) String() string {
	switch r {
	case NotTruncated:
		return "complete"
	case TruncatedNonFinite:
		return "non-finite"
	case TruncatedMaxRange:
		return "max-range"
	case TruncatedBudget:
		return "budget"
	}
	panic("cannot stringify unknown truncation reason")
}

// TrajectoryPoint is one time-stamped sample of a predicted path.
type TrajectoryPoint struct {
	DT    time.Time
	R, V  []float64
	Frame Frame
}

// Trajectory is an ordered, frame-tagged sample sequence with truncation
// metadata and the content hash of the rounded inputs which produced it.
type Trajectory struct {
	Points    []TrajectoryPoint
	Truncated bool
	Reason    TruncationReason
	Hash      uint64
}

type cacheEntry struct {
	traj     *Trajectory
	storedAt time.Time
}

// Predictor forward-steps a ship copy over a horizon, switching frames at SOI
// boundaries, and caches results by a rounded-input content hash. The cache
// map is replaced wholesale on writes, so concurrent readers on later ticks
// need no locking.
type Predictor struct {
	MaxSteps  int
	Budget    time.Duration
	MaxRadius float64 // km, heliocentric
	TTL       time.Duration

	tm     *TransitionManager
	cache  atomic.Value // map[uint64]cacheEntry
	logger kitlog.Logger
}

// NewPredictor returns a predictor with the configured bounds.
func NewPredictor(tm *TransitionManager, logger kitlog.Logger) *Predictor {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	c := simConfig()
	p := &Predictor{
		MaxSteps:  c.MaxPredictionSteps,
		Budget:    c.PredictionBudget,
		MaxRadius: c.MaxRadiusAU * AU,
		TTL:       c.CacheTTL,
		tm:        tm,
		logger:    logger,
	}
	p.cache.Store(map[uint64]cacheEntry{})
	return p
}

// Predict propagates a copy of the ship from start for the given duration and
// returns the sampled path. The live ship is never touched. Identical rounded
// inputs within the cache TTL return the previously computed trajectory.
func (p *Predictor) Predict(ship Ship, bodies []Body, sail SailConfig, start time.Time, duration time.Duration) *Trajectory {
	hash := predictionHash(*ship.Orbit, sail, start, duration)
	cached := p.cache.Load().(map[uint64]cacheEntry)
	if entry, ok := cached[hash]; ok && time.Since(entry.storedAt) < p.TTL {
		cacheHits.Inc()
		return entry.traj
	}
	cacheMisses.Inc()

	// One step per hour of horizon, capped to keep the per-call budget.
	steps := int(duration.Hours())
	if steps < 16 {
		steps = 16
	}
	if steps > p.MaxSteps {
		steps = p.MaxSteps
	}
	stepDur := duration / time.Duration(steps)
	deadline := time.Now().Add(p.Budget)

	orbit := ship.Orbit
	cooldowns := ship.cloneCooldowns()
	traj := &Trajectory{Hash: hash}

	prev := orbit.StateAt(start)
	traj.Points = append(traj.Points, TrajectoryPoint{DT: start, R: prev.R, V: prev.V, Frame: prev.Frame})

	// Anchor for the straight-line fallback on extreme-eccentricity arcs.
	var linearAnchor *StateVector
	var anchorAt time.Time
	if p.tm.ExtremeEccentric(*orbit) {
		linearAnchor = &prev
		anchorAt = start
	}

	for i := 1; i <= steps; i++ {
		t := start.Add(stepDur * time.Duration(i))

		var sv StateVector
		if linearAnchor != nil {
			sv = LinearState(*linearAnchor, t.Sub(anchorAt))
		} else {
			sv = orbit.StateAt(t)
		}
		if !sv.Finite() {
			p.truncate(traj, TruncatedNonFinite)
			break
		}

		if !sail.Disabled() && linearAnchor == nil {
			rHelio := p.helioRadius(sv, bodies, t)
			accel := sail.AccelRCN(rHelio)
			newOrbit, err := IntegrateThrust(sv, accel, stepDur, t, orbit.Origin)
			if err != nil {
				p.truncate(traj, TruncatedNonFinite)
				break
			}
			orbit = newOrbit
			sv = orbit.StateAt(t)
		}

		trans, err := p.tm.Check(prev, sv, bodies, t, cooldowns)
		if err != nil {
			// Frame mix-ups are contract violations; never paper over them.
			panic(err)
		}
		if trans != nil {
			orbit = trans.Elements
			sv = trans.State
			if trans.Entry {
				if p.tm.ExtremeEccentric(*orbit) {
					anchored := sv
					linearAnchor = &anchored
					anchorAt = t
				}
			} else {
				cooldowns[trans.Body.Name] = trans.CooldownUntil
				linearAnchor = nil
			}
		}

		traj.Points = append(traj.Points, TrajectoryPoint{DT: t, R: sv.R, V: sv.V, Frame: sv.Frame})
		prev = sv

		if p.helioRadius(sv, bodies, t) > p.MaxRadius {
			p.truncate(traj, TruncatedMaxRange)
			break
		}
		if time.Now().After(deadline) {
			p.truncate(traj, TruncatedBudget)
			break
		}
	}

	p.store(hash, traj)
	return traj
}

// InvalidateCache drops all cached trajectories, e.g. when the caller's input
// set changed in a way the hash cannot see.
func (p *Predictor) InvalidateCache() {
	p.cache.Store(map[uint64]cacheEntry{})
}

func (p *Predictor) truncate(traj *Trajectory, reason TruncationReason) {
	traj.Truncated = true
	traj.Reason = reason
	truncatedPredictions.WithLabelValues(reason.String()).Inc()
	p.logger.Log("level", "debug", "subsys", "predict", "truncated", reason.String(), "samples", len(traj.Points))
}

// helioRadius returns the heliocentric distance of a state in any frame.
func (p *Predictor) helioRadius(sv StateVector, bodies []Body, at time.Time) float64 {
	if sv.Frame.IsHeliocentric() {
		return norm(sv.R)
	}
	b, err := findBody(bodies, sv.Frame.Center)
	if err != nil {
		return norm(sv.R)
	}
	return norm(add(sv.R, b.HelioState(at).R))
}

func (p *Predictor) store(hash uint64, traj *Trajectory) {
	old := p.cache.Load().(map[uint64]cacheEntry)
	now := time.Now()
	next := make(map[uint64]cacheEntry, len(old)+1)
	for k, v := range old {
		if now.Sub(v.storedAt) < p.TTL {
			next[k] = v
		}
	}
	next[hash] = cacheEntry{traj: traj, storedAt: now}
	p.cache.Store(next)
}

// hashQuantum rounds floating inputs before hashing. An unrounded hash changes
// on every step under continuous thrust and defeats the cache entirely.
const hashQuantum = 1e-6

func writeRounded(d *xxhash.Digest, vals ...float64) {
	var buf [8]byte
	for _, v := range vals {
		q := int64(math.Round(v / hashQuantum))
		binary.LittleEndian.PutUint64(buf[:], uint64(q))
		d.Write(buf[:])
	}
}

// predictionHash folds every input that affects the path: the orbit, the sail
// setting, and the time window.
func predictionHash(o Elements, sail SailConfig, start time.Time, duration time.Duration) uint64 {
	d := xxhash.New()
	d.WriteString(o.Origin.Name)
	writeRounded(d, o.a, o.e, o.i, o.Ω, o.ω, o.M0)
	writeRounded(d, float64(o.epoch.Unix()), float64(start.Unix()), duration.Seconds())
	writeRounded(d, sail.Deployment, sail.Yaw, sail.Pitch, sail.Area, sail.Mass)
	return d.Sum64()
}
