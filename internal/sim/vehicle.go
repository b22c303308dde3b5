// Package sim provides a point-mass quadrotor plant for running the control
// loop closed-loop without hardware: translational dynamics from the commanded
// thrust along the body-up axis, a first-order attitude response toward the
// commanded attitude, and a configurable IMU/odometry frame offset.
package sim

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skyward-robotics/quadctrl/internal/control"
	"github.com/skyward-robotics/quadctrl/internal/quadmath"
)

// Config holds the plant parameters.
type Config struct {
	TrueGain    float64     // actual thrust -> vertical acceleration gain
	Gravity     float64     // m/s²
	AttitudeTau float64     // attitude response time constant, seconds
	FrameOffset quat.Number // IMU orientation = FrameOffset ∘ odometry orientation
}

// DefaultConfig returns a plant roughly matching a small quadrotor whose true
// gain differs from the hover-seeded estimate, so estimator convergence is
// observable.
func DefaultConfig() Config {
	return Config{
		TrueGain:    28.0,
		Gravity:     9.81,
		AttitudeTau: 0.08,
		FrameOffset: quat.Number{Real: 1},
	}
}

// Vehicle is the simulated plant state.
type Vehicle struct {
	cfg Config

	position    r3.Vec
	velocity    r3.Vec
	orientation quat.Number // true attitude, expressed in the odometry frame

	lastThrust float64
}

// NewVehicle returns a vehicle at rest at the origin, level.
func NewVehicle(cfg Config) *Vehicle {
	return &Vehicle{
		cfg:         cfg,
		orientation: quat.Number{Real: 1},
	}
}

// Step advances the plant by dt seconds under the given command.
func (v *Vehicle) Step(cmd control.Output, dt float64) {
	// The command is expressed in the FCU frame; undo the frame offset to get
	// the attitude target in the odometry frame the plant integrates in.
	target := quat.Mul(quat.Inv(v.cfg.FrameOffset), cmd.Attitude)
	alpha := 1 - math.Exp(-dt/v.cfg.AttitudeTau)
	v.orientation = slerp(v.orientation, target, alpha)

	accel := r3.Sub(
		r3.Scale(cmd.Thrust*v.cfg.TrueGain, quadmath.BodyZ(v.orientation)),
		r3.Vec{Z: v.cfg.Gravity})
	v.velocity = r3.Add(v.velocity, r3.Scale(dt, accel))
	v.position = r3.Add(v.position, r3.Scale(dt, v.velocity))

	v.lastThrust = cmd.Thrust
}

// Odometry returns the plant state as the external odometry source would
// report it.
func (v *Vehicle) Odometry() control.OdometryData {
	return control.OdometryData{
		Position:    v.position,
		Velocity:    v.velocity,
		Orientation: v.orientation,
	}
}

// Imu returns the orientation as the flight-control unit would report it,
// offset from the odometry frame per the configuration.
func (v *Vehicle) Imu() control.ImuData {
	return control.ImuData{
		Orientation: quat.Mul(v.cfg.FrameOffset, v.orientation),
	}
}

// MeasuredAccelZ returns the vertical specific force the onboard accelerometer
// reports for the thrust currently applied.
func (v *Vehicle) MeasuredAccelZ() float64 {
	return v.lastThrust * v.cfg.TrueGain * quadmath.BodyZ(v.orientation).Z
}

// slerp spherically interpolates from a to b by t along the shorter arc.
func slerp(a, b quat.Number, t float64) quat.Number {
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	if dot > 0.9995 {
		// Nearly parallel: normalized linear interpolation is accurate and
		// avoids the vanishing sine below.
		q := quat.Add(quat.Scale(1-t, a), quat.Scale(t, b))
		return quat.Scale(1/quat.Abs(q), q)
	}
	theta := math.Acos(dot)
	sa := math.Sin((1-t)*theta) / math.Sin(theta)
	sb := math.Sin(t*theta) / math.Sin(theta)
	return quat.Add(quat.Scale(sa, a), quat.Scale(sb, b))
}
