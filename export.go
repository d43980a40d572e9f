package sailsim

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ExportTrajectoryCSV writes the trajectory as time-stamped xyzv rows, one per
// sample, for plotting. Positions in km, velocities in km/s.
func ExportTrajectoryCSV(w io.Writer, traj *Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "frame", "x", "y", "z", "vx", "vy", "vz"}); err != nil {
		return err
	}
	for _, pt := range traj.Points {
		row := []string{
			pt.DT.Format(time.RFC3339),
			pt.Frame.String(),
			fmt.Sprintf("%.6f", pt.R[0]), fmt.Sprintf("%.6f", pt.R[1]), fmt.Sprintf("%.6f", pt.R[2]),
			fmt.Sprintf("%.9f", pt.V[0]), fmt.Sprintf("%.9f", pt.V[1]), fmt.Sprintf("%.9f", pt.V[2]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type trajectoryJSON struct {
	Truncated bool              `json:"truncated"`
	Reason    string            `json:"reason,omitempty"`
	Hash      uint64            `json:"hash"`
	Points    []trajectoryPtRow `json:"points"`
}

type trajectoryPtRow struct {
	Time  time.Time `json:"time"`
	Frame string    `json:"frame"`
	R     []float64 `json:"r"`
	V     []float64 `json:"v"`
}

// ExportTrajectoryJSON writes the trajectory, truncation metadata included.
func ExportTrajectoryJSON(w io.Writer, traj *Trajectory) error {
	out := trajectoryJSON{Truncated: traj.Truncated, Hash: traj.Hash}
	if traj.Truncated {
		out.Reason = traj.Reason.String()
	}
	for _, pt := range traj.Points {
		out.Points = append(out.Points, trajectoryPtRow{Time: pt.DT, Frame: pt.Frame.String(), R: pt.R, V: pt.V})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ExportEventsCSV writes intersection events, chronologically as given.
func ExportEventsCSV(w io.Writer, events []IntersectionEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "target", "class", "distance_km", "in_plane_km", "out_of_plane_km"}); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			ev.DT.Format(time.RFC3339),
			ev.Target,
			ev.Class.String(),
			fmt.Sprintf("%.3f", ev.Distance),
			fmt.Sprintf("%.3f", ev.InPlane),
			fmt.Sprintf("%.3f", ev.OutOfPlane),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
