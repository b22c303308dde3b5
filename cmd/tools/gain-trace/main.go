// Command gain-trace renders a PNG of the thrust-mapping estimator's
// convergence for one recorded session: gain estimate and covariance against
// time.
package main

import (
	"flag"
	"log"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/skyward-robotics/quadctrl/internal/telemetry"
)

var (
	dbPath    = flag.String("db", "telemetry.db", "Telemetry database path")
	sessionID = flag.String("session", "", "Session to plot (default: most recent)")
	outPath   = flag.String("out", "gain_trace.png", "Output PNG file")
)

func main() {
	flag.Parse()

	store, err := telemetry.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open telemetry store: %v", err)
	}
	defer store.Close()

	id := *sessionID
	if id == "" {
		sessions, err := store.Sessions()
		if err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatal("no sessions recorded")
		}
		id = sessions[len(sessions)-1].ID
	}

	recs, err := store.Cycles(id)
	if err != nil {
		log.Fatalf("failed to load cycles: %v", err)
	}
	if len(recs) == 0 {
		log.Fatalf("session %s has no cycles", id)
	}

	t0 := recs[0].UnixNanos
	gainPts := make(plotter.XYs, len(recs))
	covPts := make(plotter.XYs, len(recs))
	for i, r := range recs {
		t := time.Duration(r.UnixNanos - t0).Seconds()
		gainPts[i] = plotter.XY{X: t, Y: r.Gain}
		covPts[i] = plotter.XY{X: t, Y: r.Covariance}
	}

	p := plot.New()
	p.Title.Text = "Thrust mapping convergence — session " + id
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "gain (m/s² per unit thrust)"

	gainLine, err := plotter.NewLine(gainPts)
	if err != nil {
		log.Fatalf("failed to build gain line: %v", err)
	}
	gainLine.Width = vg.Points(1)
	p.Add(gainLine)
	p.Legend.Add("gain", gainLine)

	pCov := plot.New()
	pCov.Title.Text = "Estimation covariance — session " + id
	pCov.X.Label.Text = "t (s)"
	pCov.Y.Label.Text = "P"
	pCov.Y.Scale = plot.LogScale{}
	pCov.Y.Tick.Marker = plot.LogTicks{}

	covLine, err := plotter.NewLine(covPts)
	if err != nil {
		log.Fatalf("failed to build covariance line: %v", err)
	}
	covLine.Width = vg.Points(1)
	pCov.Add(covLine)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, *outPath); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	covOut := covPath(*outPath)
	if err := pCov.Save(10*vg.Inch, 4*vg.Inch, covOut); err != nil {
		log.Fatalf("failed to save covariance plot: %v", err)
	}
	log.Printf("wrote %s and %s (%d cycles)", *outPath, covOut, len(recs))
}

// covPath derives the covariance plot filename from the gain plot filename.
func covPath(path string) string {
	const suffix = ".png"
	if len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix {
		return path[:len(path)-len(suffix)] + "_cov" + suffix
	}
	return path + "_cov.png"
}
