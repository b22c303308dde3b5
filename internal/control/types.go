package control

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DesiredState is the trajectory target for one control cycle. It is produced
// by the trajectory source and never mutated here.
type DesiredState struct {
	Position     r3.Vec
	Velocity     r3.Vec
	Acceleration r3.Vec
	Yaw          float64
}

// OdometryData is the vehicle pose estimate from the external (vision or
// GPS-fused) odometry source.
type OdometryData struct {
	Position    r3.Vec
	Velocity    r3.Vec
	Orientation quat.Number // unit quaternion
}

// ImuData is the orientation as the flight-control unit itself estimates it.
// It generally differs from the odometry orientation by a small, slowly
// varying offset because the two estimators disagree.
type ImuData struct {
	Orientation quat.Number // unit quaternion
}

// Params are the controller gains and physical constants, loaded from
// configuration and read-only during a cycle.
type Params struct {
	Kp      r3.Vec  // proportional position gains, per axis
	Kv      r3.Vec  // derivative/velocity gains, per axis
	Gravity float64 // m/s²
}

// Output is the actuation command for one cycle: a normalized collective
// thrust signal and a target attitude in the flight-control unit's own
// orientation frame.
type Output struct {
	Thrust   float64
	Attitude quat.Number
}

// Diagnostics is the per-cycle telemetry snapshot: the intermediate desired
// velocity and acceleration, and the commanded attitude and thrust.
type Diagnostics struct {
	DesiredVelocity     r3.Vec
	DesiredAcceleration r3.Vec
	Attitude            quat.Number
	Thrust              float64
}
