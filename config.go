package sailsim

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	cfg       = _simconfig{}
)

// _simconfig is a "hidden" struct, just use `simConfig`.
type _simconfig struct {
	// Ephemeris selection.
	VSOP87    bool
	VSOP87Dir string
	// SOI transition tunables.
	Hysteresis      float64
	Cooldown        time.Duration
	ExtremeEcc      float64
	CollisionMargin float64
	// Prediction bounds.
	MaxRadiusAU        float64
	MaxPredictionSteps int
	PredictionBudget   time.Duration
	IntersectionBudget time.Duration
	CacheTTL           time.Duration
}

// simConfig returns the engine configuration. All keys have defaults so the
// engine runs as a library without any configuration file; a conf.toml in the
// directory named by SAILSIM_CONFIG overrides them.
func simConfig() _simconfig {
	if cfgLoaded {
		return cfg
	}
	v := viper.New()
	v.SetDefault("ephemeris.vsop87", false)
	v.SetDefault("ephemeris.vsop87_dir", "")
	v.SetDefault("soi.hysteresis", 1.02)
	v.SetDefault("soi.cooldown", "6h")
	v.SetDefault("soi.extreme_ecc", 50.0)
	v.SetDefault("soi.collision_margin", 1.1)
	v.SetDefault("predict.max_radius_au", 100.0)
	v.SetDefault("predict.max_steps", 2000)
	v.SetDefault("predict.budget", "50ms")
	v.SetDefault("predict.cache_ttl", "2s")
	v.SetDefault("intersect.budget", "25ms")

	if confPath := os.Getenv("SAILSIM_CONFIG"); confPath != "" {
		v.SetConfigName("conf")
		v.AddConfigPath(confPath)
		// A missing or broken file falls back to the defaults; the engine must
		// never refuse to start over tuning knobs.
		_ = v.ReadInConfig()
	}

	cfg = _simconfig{
		VSOP87:             v.GetBool("ephemeris.vsop87"),
		VSOP87Dir:          v.GetString("ephemeris.vsop87_dir"),
		Hysteresis:         v.GetFloat64("soi.hysteresis"),
		Cooldown:           v.GetDuration("soi.cooldown"),
		ExtremeEcc:         v.GetFloat64("soi.extreme_ecc"),
		CollisionMargin:    v.GetFloat64("soi.collision_margin"),
		MaxRadiusAU:        v.GetFloat64("predict.max_radius_au"),
		MaxPredictionSteps: v.GetInt("predict.max_steps"),
		PredictionBudget:   v.GetDuration("predict.budget"),
		IntersectionBudget: v.GetDuration("intersect.budget"),
		CacheTTL:           v.GetDuration("predict.cache_ttl"),
	}
	cfgLoaded = true
	return cfg
}
