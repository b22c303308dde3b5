package control

import (
	"math"
	"time"

	"gonum.org/v1/gonum/num/quat"

	"github.com/skyward-robotics/quadctrl/internal/quadmath"
	"github.com/skyward-robotics/quadctrl/internal/thrustmap"
)

// LinearLaw is the small-angle control law: roll and pitch are recovered by
// inverting the linearized mapping from horizontal acceleration to attitude,
// valid for small deviations from level flight.
type LinearLaw struct {
	params Params
	est    *thrustmap.Estimator
}

// NewLinearLaw returns a linear law with the given gains, recording thrust
// into est each cycle.
func NewLinearLaw(params Params, est *thrustmap.Estimator) *LinearLaw {
	return &LinearLaw{params: params, est: est}
}

// Compute implements Law.
func (l *LinearLaw) Compute(des DesiredState, odom OdometryData, imu ImuData, now time.Time) (Output, Diagnostics, error) {
	p := l.params
	desAcc := desiredAcceleration(des, odom, p)

	gain := l.est.Gain()
	if gain <= 0 {
		return Output{}, Diagnostics{}, ErrInvalidThrustMapping
	}
	thrust := desAcc.Z / gain

	// Invert the small-angle attitude-to-acceleration mapping in the odometry
	// yaw frame.
	yawOdom := quadmath.Yaw(odom.Orientation)
	sy, cy := math.Sin(yawOdom), math.Cos(yawOdom)
	roll := (desAcc.X*sy - desAcc.Y*cy) / p.Gravity
	pitch := (desAcc.X*cy + desAcc.Y*sy) / p.Gravity

	candidate := quat.Mul(quat.Mul(
		quadmath.RotZ(des.Yaw),
		quadmath.RotY(pitch)),
		quadmath.RotX(roll))

	out := Output{
		Thrust:   thrust,
		Attitude: frameCorrect(candidate, odom, imu),
	}
	diag := Diagnostics{
		DesiredVelocity:     des.Velocity,
		DesiredAcceleration: desAcc,
		Attitude:            out.Attitude,
		Thrust:              thrust,
	}

	l.est.RecordCommand(thrust, now)
	return out, diag, nil
}
