package sailsim

import (
	"errors"
	"sync/atomic"
	"time"

	kitlog "github.com/go-kit/kit/log"
)

// ErrReentrantAdvance is returned when Advance is called while another Advance
// is still running. Two drivers stepping the same engine in one tick silently
// doubles time advancement, thrust and SOI side effects; the engine refuses it
// outright instead.
var ErrReentrantAdvance = errors.New("Advance called re-entrantly within a tick")

// Engine is the orbital-mechanics engine for a fleet. It is deterministic and
// logically single-threaded: exactly one driver advances it per tick through
// the single Advance entry point, and every call receives its simulation time
// explicitly. The engine never reads an ambient clock or a global body list.
type Engine struct {
	soi       *TransitionManager
	predictor *Predictor
	logger    kitlog.Logger
	stepping  int32
}

// NewEngine returns an engine wired with the configured transition manager and
// predictor. A nil logger silences it.
func NewEngine(logger kitlog.Logger) *Engine {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	tm := NewTransitionManager(logger)
	return &Engine{
		soi:       tm,
		predictor: NewPredictor(tm, logger),
		logger:    logger,
	}
}

// Advance performs exactly one physics step: advance the ship from `now` by
// `step`, integrate sail thrust, and resolve at most the SOI transitions that
// occur within the step. It returns the new ship; the input ship is never
// mutated, so there are no partially-updated states for anyone to observe.
func (e *Engine) Advance(ship Ship, bodies []Body, step time.Duration, now time.Time, sail SailConfig) (Ship, error) {
	if !atomic.CompareAndSwapInt32(&e.stepping, 0, 1) {
		return ship, ErrReentrantAdvance
	}
	defer atomic.StoreInt32(&e.stepping, 0)

	t := now.Add(step)
	orbit := ship.Orbit
	prev := orbit.StateAt(now)
	sv := orbit.StateAt(t)
	if !sv.Finite() {
		return ship, NonFiniteStateError{Op: "Engine.Advance", LastGood: prev}
	}

	if !sail.Disabled() && !e.soi.ExtremeEccentric(*orbit) {
		rHelio := e.predictor.helioRadius(sv, bodies, t)
		accel := sail.AccelRCN(rHelio)
		newOrbit, err := IntegrateThrust(sv, accel, step, t, orbit.Origin)
		if err != nil {
			return ship, err
		}
		orbit = newOrbit
		sv = orbit.StateAt(t)
	}

	cooldowns := ship.cloneCooldowns()
	trans, err := e.soi.Check(prev, sv, bodies, t, cooldowns)
	if err != nil {
		return ship, err
	}
	out := Ship{Name: ship.Name, Orbit: orbit, SOICooldowns: cooldowns, LastTransition: ship.LastTransition}
	if trans != nil {
		out.Orbit = trans.Elements
		out.LastTransition = t
		if !trans.Entry {
			cooldowns[trans.Body.Name] = trans.CooldownUntil
		}
		e.logger.Log("level", "info", "subsys", "astro", "ship", ship.Name,
			"transition", trans.Body.Name, "entry", trans.Entry, "dt", t)
	}
	return out, nil
}

// PredictTrajectory forward-samples a copy of the ship over the horizon.
func (e *Engine) PredictTrajectory(ship Ship, bodies []Body, sail SailConfig, start time.Time, durationDays float64) *Trajectory {
	duration := time.Duration(durationDays * 24 * float64(time.Hour))
	return e.predictor.Predict(ship, bodies, sail, start, duration)
}

// DetectIntersections scans a predicted trajectory against the bodies' orbits.
func (e *Engine) DetectIntersections(traj *Trajectory, bodies []Body, ref time.Time) []IntersectionEvent {
	return DetectIntersections(traj, bodies, ref)
}

// AnalyzeGravityAssist analyses a flyby from its entry and exit states.
func (e *Engine) AnalyzeGravityAssist(entry, exit StateVector, body Body) (AssistSummary, error) {
	return AnalyzeGravityAssist(entry, exit, body)
}

// InvalidatePredictions drops the trajectory cache, for callers whose input
// set changed outside of the hashed values.
func (e *Engine) InvalidatePredictions() {
	e.predictor.InvalidateCache()
}
