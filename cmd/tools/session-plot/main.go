// Command session-plot renders an interactive HTML report for one recorded
// flight session: commanded thrust, estimator gain and covariance, and the
// desired acceleration components over time.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/skyward-robotics/quadctrl/internal/telemetry"
)

var (
	dbPath    = flag.String("db", "telemetry.db", "Telemetry database path")
	sessionID = flag.String("session", "", "Session to plot (default: most recent)")
	outPath   = flag.String("out", "session.html", "Output HTML file")
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
	x := make([]string, len(recs))
	thrust := make([]opts.LineData, len(recs))
	gain := make([]opts.LineData, len(recs))
	cov := make([]opts.LineData, len(recs))
	desAX := make([]opts.LineData, len(recs))
	desAY := make([]opts.LineData, len(recs))
	desAZ := make([]opts.LineData, len(recs))
	for i, r := range recs {
		x[i] = fmt.Sprintf("%.2f", time.Duration(r.UnixNanos-t0).Seconds())
		thrust[i] = opts.LineData{Value: r.Thrust}
		gain[i] = opts.LineData{Value: r.Gain}
		cov[i] = opts.LineData{Value: r.Covariance}
		desAX[i] = opts.LineData{Value: r.DesAX}
		desAY[i] = opts.LineData{Value: r.DesAY}
		desAZ[i] = opts.LineData{Value: r.DesAZ}
	}

	thrustChart := charts.NewLine()
	thrustChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Commanded thrust", Subtitle: "session " + id}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	thrustChart.SetXAxis(x).AddSeries("thrust", thrust)

	gainChart := charts.NewLine()
	gainChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Thrust mapping estimate"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	gainChart.SetXAxis(x).
		AddSeries("gain", gain).
		AddSeries("covariance", cov)

	accChart := charts.NewLine()
	accChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Desired acceleration"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
	)
	accChart.SetXAxis(x).
		AddSeries("ax", desAX).
		AddSeries("ay", desAY).
		AddSeries("az", desAZ)

	page := components.NewPage()
	page.AddCharts(thrustChart, gainChart, accChart)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	log.Printf("wrote %s (%d cycles)", *outPath, len(recs))
}
