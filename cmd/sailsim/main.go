package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	kitlog "github.com/go-kit/kit/log"

	sailsim "github.com/MattCam2007/sailship-sub001"
)

var (
	durationDays float64
	stepHours    float64
	deployment   float64
	yawDeg       float64
	pitchDeg     float64
	outPath      string
)

func init() {
	flag.Float64Var(&durationDays, "duration", 365, "scenario duration in days")
	flag.Float64Var(&stepHours, "step", 6, "tick size in hours")
	flag.Float64Var(&deployment, "deploy", 0.5, "sail deployment fraction (0 to 1)")
	flag.Float64Var(&yawDeg, "yaw", 35, "sail yaw off the sun line, degrees")
	flag.Float64Var(&pitchDeg, "pitch", 0, "sail pitch, degrees")
	flag.StringVar(&outPath, "out", "trajectory.csv", "trajectory CSV output path")
}

/*
 * Runs a reference scenario: a sail ship on a circular 1 AU heliocentric
 * orbit, sail trimmed for spiral-out, advanced tick by tick for the given
 * duration. The predicted trajectory and the Venus/Mars/Jupiter encounter
 * events are printed and exported.
 */

func main() {
	flag.Parse()
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	engine := sailsim.NewEngine(logger)
	bodies := []sailsim.Body{sailsim.Venus, sailsim.Earth, sailsim.Mars, sailsim.Jupiter}

	ship := sailsim.Ship{
		Name:  "SS-1",
		Orbit: sailsim.NewElementsFromOE(sailsim.AU, 0, 0, 0, 0, 0, start, sailsim.Sun),
	}
	sail := sailsim.SailConfig{
		Deployment: deployment,
		Yaw:        sailsim.Deg2rad(yawDeg),
		Pitch:      sailsim.Deg2rad(pitchDeg),
		Area:       10000, // 100m x 100m
		Mass:       500,
	}

	step := time.Duration(stepHours * float64(time.Hour))
	now := start
	end := start.Add(time.Duration(durationDays * 24 * float64(time.Hour)))
	for now.Before(end) {
		var err error
		ship, err = engine.Advance(ship, bodies, step, now, sail)
		if err != nil {
			logger.Log("level", "critical", "subsys", "main", "err", err)
			os.Exit(1)
		}
		now = now.Add(step)
	}
	logger.Log("level", "notice", "subsys", "main", "status", "advanced", "until", now, "orbit", ship.Orbit)

	traj := engine.PredictTrajectory(ship, bodies, sail, now, durationDays)
	events := engine.DetectIntersections(traj, bodies, now)
	for _, ev := range events {
		fmt.Printf("%s  %-8s %-16s d=%.0f km (in-plane %.0f, out-of-plane %.0f)\n",
			ev.DT.Format("2006-01-02 15:04"), ev.Target, ev.Class, ev.Distance, ev.InPlane, ev.OutOfPlane)
	}

	f, err := os.Create(outPath)
	if err != nil {
		logger.Log("level", "critical", "subsys", "main", "err", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := sailsim.ExportTrajectoryCSV(f, traj); err != nil {
		logger.Log("level", "critical", "subsys", "main", "err", err)
		os.Exit(1)
	}
	logger.Log("level", "notice", "subsys", "main", "status", "exported", "samples", len(traj.Points), "file", outPath)
}
