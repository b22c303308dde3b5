// Package thrustmap estimates the mapping between the normalized collective
// thrust signal sent to the flight controller and the vertical acceleration it
// actually produces. The mapping drifts with battery voltage, payload and air
// density, so it is learned online with a recursive least squares filter with
// vanishing memory fed from time-lagged (thrust, acceleration) pairs.
package thrustmap

import (
	"time"
)

const (
	// MaxHistory bounds the commanded-thrust history under sustained operation.
	MaxHistory = 100
	// MinSampleAge is the minimum actuation-to-sensing latency. Samples younger
	// than this are kept for a later update so the measured acceleration lines
	// up with the command that produced it.
	MinSampleAge = 35 * time.Millisecond
	// MaxSampleAge is the maximum usable sample age; older samples are stale
	// and discarded without an update.
	MaxSampleAge = 45 * time.Millisecond
	// ResetCovariance is the covariance after a reset: effectively no
	// confidence in the seeded gain.
	ResetCovariance = 1e6
)

// Config holds the estimator parameters.
type Config struct {
	ForgettingFactor float64 // rho² in (0, 1]; below 1 tracks slow drift
	Gravity          float64 // m/s²
	HoverPercentage  float64 // thrust signal that holds hover, in (0, 1]
}

// DefaultConfig returns estimator parameters suitable for a small quadrotor.
func DefaultConfig() Config {
	return Config{
		ForgettingFactor: 0.998,
		Gravity:          9.81,
		HoverPercentage:  0.3,
	}
}

// Sample is one timestamped commanded-thrust record awaiting its matching
// acceleration measurement.
type Sample struct {
	Time   time.Time
	Thrust float64
}

// Estimator maintains the scalar thrust-to-acceleration gain and its
// covariance, plus the queue of recent commands. It is not safe for concurrent
// use; the control cycle owns it single-threaded (a multi-threaded host must
// wrap it in its own lock).
type Estimator struct {
	cfg Config

	gain float64 // thrust -> vertical acceleration
	cov  float64 // scalar estimation covariance P

	history []Sample // oldest first
}

// New returns an estimator seeded from the configured hover percentage, as if
// Reset had just been called.
func New(cfg Config) *Estimator {
	e := &Estimator{
		cfg:     cfg,
		history: make([]Sample, 0, MaxHistory),
	}
	e.Reset()
	return e
}

// Gain returns the current thrust-to-acceleration gain estimate.
func (e *Estimator) Gain() float64 { return e.gain }

// Covariance returns the current scalar estimation covariance.
func (e *Estimator) Covariance() float64 { return e.cov }

// HistoryLen returns the number of queued commanded-thrust samples.
func (e *Estimator) HistoryLen() int { return len(e.history) }

// Reset reinitializes the gain to gravity/hover_percentage and the covariance
// to ResetCovariance, discarding accumulated confidence. The sample history is
// kept: queued commands are still valid observations for the reseeded filter.
func (e *Estimator) Reset() {
	e.gain = e.cfg.Gravity / e.cfg.HoverPercentage
	e.cov = ResetCovariance
}

// RecordCommand appends a commanded thrust at time now. When the history
// exceeds MaxHistory the oldest entry is evicted.
func (e *Estimator) RecordCommand(thrust float64, now time.Time) {
	e.history = append(e.history, Sample{Time: now, Thrust: thrust})
	if len(e.history) > MaxHistory {
		e.history = e.history[1:]
	}
}

// TryUpdate consumes at most one suitably aged sample and performs a single
// RLS update against the measured vertical acceleration. Samples older than
// MaxSampleAge are discarded; if the oldest remaining sample is younger than
// MinSampleAge no update happens yet and it is retained for a later call.
// Returns true only when an update was performed.
func (e *Estimator) TryUpdate(measuredAccelZ float64, now time.Time) bool {
	for len(e.history) > 0 {
		age := now.Sub(e.history[0].Time)
		if age > MaxSampleAge {
			e.history = e.history[1:]
			continue
		}
		if age < MinSampleAge {
			return false
		}

		thr := e.history[0].Thrust
		e.history = e.history[1:]

		// Recursive least squares with vanishing memory.
		// Model: measuredAccelZ = gain * thr.
		rho2 := e.cfg.ForgettingFactor
		gamma := 1 / (rho2 + thr*e.cov*thr)
		k := gamma * e.cov * thr
		e.gain += k * (measuredAccelZ - thr*e.gain)
		e.cov = (1 - k*thr) * e.cov / rho2
		return true
	}
	return false
}
