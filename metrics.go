package sailsim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The engine's failure modes are silent by design (best-estimate solver
// output, truncated trajectories, forced captures), so they are counted here
// instead of thrown.
var (
	solverDivergences = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sailsim",
		Subsystem: "anomaly",
		Name:      "solver_divergences_total",
		Help:      "Kepler solver calls which hit the iteration cap and returned a best estimate.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sailsim",
		Subsystem: "predict",
		Name:      "cache_hits_total",
		Help:      "Trajectory predictions served from the rounded-input cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sailsim",
		Subsystem: "predict",
		Name:      "cache_misses_total",
		Help:      "Trajectory predictions which had to be recomputed.",
	})

	truncatedPredictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sailsim",
		Subsystem: "predict",
		Name:      "truncations_total",
		Help:      "Predictions cut short, by reason.",
	}, []string{"reason"})

	soiTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sailsim",
		Subsystem: "soi",
		Name:      "transitions_total",
		Help:      "Sphere-of-influence frame switches, by direction.",
	}, []string{"direction"})

	forcedCaptures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sailsim",
		Subsystem: "soi",
		Name:      "forced_captures_total",
		Help:      "Collision-guard activations which forced a safe circular orbit.",
	})
)
