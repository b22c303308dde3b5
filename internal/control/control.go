// Package control turns a desired trajectory state plus measured odometry and
// inertial orientation into a collective thrust and attitude command, feeding
// every commanded thrust back into the thrust-mapping estimator. Two law
// variants share one interface: a small-angle linearized law and a full
// rotation-group geometric law. The variant is selected once at startup, not
// switched mid-flight.
package control

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skyward-robotics/quadctrl/internal/quadmath"
	"github.com/skyward-robotics/quadctrl/internal/thrustmap"
)

// degenerateNorm is the threshold below which a vector is considered too
// short to normalize safely.
const degenerateNorm = 1e-6

var (
	// ErrInvalidThrustMapping reports a zero or negative estimated
	// thrust-to-acceleration gain, which would make the thrust division
	// meaningless. The caller decides the fallback.
	ErrInvalidThrustMapping = errors.New("invalid thrust mapping")

	// ErrDegenerateGeometry reports that the geometric law's desired attitude
	// is undefined: the desired acceleration is near zero or near parallel to
	// the yaw reference vector.
	ErrDegenerateGeometry = errors.New("degenerate attitude geometry")
)

// Law is the per-cycle control computation. Implementations record the
// commanded thrust into their estimator as a side effect of a successful
// Compute; on error the returned Output is zero and nothing is recorded.
type Law interface {
	Compute(des DesiredState, odom OdometryData, imu ImuData, now time.Time) (Output, Diagnostics, error)
}

// NewLaw constructs the named law variant ("linear" or "geometric") sharing
// the given estimator.
func NewLaw(kind string, params Params, est *thrustmap.Estimator) (Law, error) {
	switch kind {
	case "linear":
		return NewLinearLaw(params, est), nil
	case "geometric":
		return NewGeometricLaw(params, est), nil
	default:
		return nil, fmt.Errorf("unknown control law %q", kind)
	}
}

// desiredAcceleration computes the PD feedback acceleration with gravity
// feed-forward, shared by both laws:
//
//	a_des = a_ref + Kv∘(v_ref − v) + Kp∘(p_ref − p) + [0, 0, g]
func desiredAcceleration(des DesiredState, odom OdometryData, p Params) r3.Vec {
	acc := r3.Add(
		r3.Add(des.Acceleration, quadmath.MulElem(p.Kv, r3.Sub(des.Velocity, odom.Velocity))),
		quadmath.MulElem(p.Kp, r3.Sub(des.Position, odom.Position)))
	return r3.Add(acc, r3.Vec{Z: p.Gravity})
}

// frameCorrect re-expresses a candidate attitude computed in the odometry
// frame in the flight-control unit's own frame:
//
//	q_cmd = q_imu ∘ q_odom⁻¹ ∘ q_candidate
//
// The feedback law runs against odometry, but the FCU tracks attitude against
// its own estimate; composing with the (slowly varying) offset between the two
// keeps the command consistent. The multiplication order is load-bearing.
func frameCorrect(candidate quat.Number, odom OdometryData, imu ImuData) quat.Number {
	return quat.Mul(quat.Mul(imu.Orientation, quat.Inv(odom.Orientation)), candidate)
}
