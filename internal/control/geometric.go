package control

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skyward-robotics/quadctrl/internal/quadmath"
	"github.com/skyward-robotics/quadctrl/internal/thrustmap"
)

// GeometricLaw is the rotation-group tracking law: the desired body-up axis is
// aligned with the desired acceleration and the full desired rotation matrix
// is built from it and a yaw reference, with no small-angle assumption.
type GeometricLaw struct {
	params Params
	est    *thrustmap.Estimator
}

// NewGeometricLaw returns a geometric law with the given gains, recording
// thrust into est each cycle.
func NewGeometricLaw(params Params, est *thrustmap.Estimator) *GeometricLaw {
	return &GeometricLaw{params: params, est: est}
}

// Compute implements Law.
func (g *GeometricLaw) Compute(des DesiredState, odom OdometryData, imu ImuData, now time.Time) (Output, Diagnostics, error) {
	p := g.params
	desAcc := desiredAcceleration(des, odom, p)

	gain := g.est.Gain()
	if gain <= 0 {
		return Output{}, Diagnostics{}, ErrInvalidThrustMapping
	}

	// Thrust is the projection of the desired inertial acceleration onto the
	// vehicle's current (not desired) body-up direction.
	b3 := quadmath.BodyZ(odom.Orientation)
	thrust := r3.Dot(desAcc, b3) / gain

	if r3.Norm(desAcc) < degenerateNorm {
		return Output{}, Diagnostics{}, ErrDegenerateGeometry
	}
	// Align the desired body-up axis with the desired acceleration.
	b3c := r3.Unit(desAcc)

	// b2c is perpendicular to both b3c and the yaw reference; the cross
	// product collapses when the desired acceleration is parallel to it.
	aYaw := r3.Vec{X: math.Cos(des.Yaw), Y: math.Sin(des.Yaw)}
	cr := r3.Cross(b3c, aYaw)
	if r3.Norm(cr) < degenerateNorm {
		return Output{}, Diagnostics{}, ErrDegenerateGeometry
	}
	b2c := r3.Unit(cr)
	b1c := r3.Cross(b2c, b3c)

	rDes := mat.NewDense(3, 3, nil)
	rDes.SetCol(0, []float64{b1c.X, b1c.Y, b1c.Z})
	rDes.SetCol(1, []float64{b2c.X, b2c.Y, b2c.Z})
	rDes.SetCol(2, []float64{b3c.X, b3c.Y, b3c.Z})
	candidate := quadmath.FromRotationMatrix(rDes)

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

	g.est.RecordCommand(thrust, now)
	return out, diag, nil
}
