// Command quadctrl runs the multirotor position controller closed-loop
// against the built-in plant simulator, recording per-cycle telemetry and
// optionally forwarding attitude setpoints over a serial link.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os/signal"
	"syscall"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skyward-robotics/quadctrl/internal/config"
	"github.com/skyward-robotics/quadctrl/internal/control"
	"github.com/skyward-robotics/quadctrl/internal/fcu"
	"github.com/skyward-robotics/quadctrl/internal/monitoring"
	"github.com/skyward-robotics/quadctrl/internal/sim"
	"github.com/skyward-robotics/quadctrl/internal/telemetry"
	"github.com/skyward-robotics/quadctrl/internal/thrustmap"
	"github.com/skyward-robotics/quadctrl/internal/timeutil"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Controller config file")
	dbPath     = flag.String("db", "telemetry.db", "Telemetry database path (empty disables recording)")
	lawKind    = flag.String("law", "", "Control law override: linear or geometric")
	duration   = flag.Duration("duration", 30*time.Second, "How long to run the loop")
	serialPath = flag.String("serial", "", "Serial device for attitude setpoints (empty disables)")
	baudRate   = flag.Int("baud", fcu.DefaultBaudRate, "Setpoint link baud rate")
)

// referenceState is the built-in test trajectory: a smooth climb to altitude
// followed by a circle flown with the nose on the tangent.
func referenceState(elapsed time.Duration) control.DesiredState {
	const (
		climbTime = 3.0 // seconds
		altitude  = 2.0 // meters
		radius    = 1.0 // meters
		omega     = 0.5 // rad/s around the circle
	)
	t := elapsed.Seconds()

	if t < climbTime {
		// Cosine-blended climb: zero velocity at both ends.
		phase := t / climbTime
		return control.DesiredState{
			Position: r3.Vec{Z: altitude * (1 - math.Cos(math.Pi*phase)) / 2},
			Velocity: r3.Vec{Z: altitude * math.Pi / (2 * climbTime) * math.Sin(math.Pi*phase)},
			Acceleration: r3.Vec{
				Z: altitude * math.Pi * math.Pi / (2 * climbTime * climbTime) * math.Cos(math.Pi*phase),
			},
		}
	}

	// Circle with the angular rate eased in from zero, so velocity is
	// continuous at the handoff: a(τ) = ω·τ²/(τ+2).
	tau := t - climbTime
	a := omega * tau * tau / (tau + 2)
	da := omega * (tau*tau + 4*tau) / ((tau + 2) * (tau + 2))
	dda := omega * 8 / ((tau + 2) * (tau + 2) * (tau + 2))
	return control.DesiredState{
		Position: r3.Vec{
			X: radius * math.Sin(a),
			Y: radius * (1 - math.Cos(a)),
			Z: altitude,
		},
		Velocity: r3.Vec{
			X: radius * math.Cos(a) * da,
			Y: radius * math.Sin(a) * da,
		},
		Acceleration: r3.Vec{
			X: radius * (math.Cos(a)*dda - math.Sin(a)*da*da),
			Y: radius * (math.Sin(a)*dda + math.Cos(a)*da*da),
		},
		Yaw: a,
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadControllerConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	kind := cfg.GetLaw()
	if *lawKind != "" {
		kind = *lawKind
	}

	est := thrustmap.New(thrustmap.Config{
		ForgettingFactor: cfg.GetForgettingFactor(),
		Gravity:          cfg.GetGravity(),
		HoverPercentage:  cfg.GetHoverPercentage(),
	})
	law, err := control.NewLaw(kind, control.Params{
		Kp:      cfg.GetKp(),
		Kv:      cfg.GetKv(),
		Gravity: cfg.GetGravity(),
	}, est)
	if err != nil {
		log.Fatalf("failed to build control law: %v", err)
	}

	var store *telemetry.Store
	var session telemetry.Session
	if *dbPath != "" {
		store, err = telemetry.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open telemetry store: %v", err)
		}
		defer store.Close()

		session, err = store.CreateSession(kind, "simulated flight", time.Now())
		if err != nil {
			log.Fatalf("failed to create session: %v", err)
		}
		monitoring.Logf("recording session %s", session.ID)
	}

	var link *fcu.Link
	if *serialPath != "" {
		link, err = fcu.Dial(*serialPath, *baudRate)
		if err != nil {
			log.Fatalf("failed to open setpoint link: %v", err)
		}
		defer link.Close()
	}

	plant := sim.DefaultConfig()
	plant.Gravity = cfg.GetGravity()
	vehicle := sim.NewVehicle(plant)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}
	period := time.Duration(float64(time.Second) / cfg.GetCycleRateHz())
	ticker := clock.NewTicker(period)
	defer ticker.Stop()

	// Session start is the one place the mapping confidence is discarded.
	est.Reset()

	start := clock.Now()
	deadline := start.Add(*duration)
	cycles, faults := 0, 0

	monitoring.Logf("running %s law at %.0f Hz for %s", kind, cfg.GetCycleRateHz(), *duration)

loop:
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("interrupted")
			break loop
		case now := <-ticker.C():
			if now.After(deadline) {
				break loop
			}

			des := referenceState(now.Sub(start))
			out, diag, err := law.Compute(des, vehicle.Odometry(), vehicle.Imu(), now)
			if err != nil {
				// Recoverable fault: hold the previous command, let the next
				// cycle retry with fresh inputs.
				faults++
				monitoring.Logf("control fault: %v", err)
				continue
			}

			vehicle.Step(out, period.Seconds())
			est.TryUpdate(vehicle.MeasuredAccelZ(), now)
			cycles++

			if store != nil {
				rec := telemetry.CycleFromDiagnostics(session.ID, now, diag, est.Gain(), est.Covariance())
				if err := store.RecordCycle(rec); err != nil {
					monitoring.Logf("failed to record cycle: %v", err)
				}
			}
			if link != nil {
				if err := link.WriteSetpoint(out, now); err != nil {
					monitoring.Logf("failed to write setpoint: %v", err)
				}
			}
		}
	}

	pos := vehicle.Odometry().Position
	monitoring.Logf("done: %d cycles, %d faults, final position (%.2f, %.2f, %.2f), gain %.2f (P=%.4g)",
		cycles, faults, pos.X, pos.Y, pos.Z, est.Gain(), est.Covariance())
}
