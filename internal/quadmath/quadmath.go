// Package quadmath provides the small set of rotation and vector helpers
// shared by the control laws: yaw extraction, elementary axis rotations, and
// conversion between unit quaternions and rotation matrices.
//
// All quaternions are Hamilton quaternions (right-handed, w + xi + yj + zk)
// represented as gonum quat.Number with Real=w, Imag=x, Jmag=y, Kmag=z.
// Rotations are active: Rotate(q, v) = q v q⁻¹.
package quadmath

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Yaw returns the rotation about the vertical axis implied by a unit
// quaternion, independent of roll and pitch (ZYX Euler convention):
//
//	yaw = atan2(2(qx·qy + qw·qz), qw² + qx² − qy² − qz²)
func Yaw(q quat.Number) float64 {
	return math.Atan2(
		2*(q.Imag*q.Jmag+q.Real*q.Kmag),
		q.Real*q.Real+q.Imag*q.Imag-q.Jmag*q.Jmag-q.Kmag*q.Kmag,
	)
}

// RotX returns the quaternion rotating by angle a about the body X axis.
func RotX(a float64) quat.Number {
	return quat.Number(r3.NewRotation(a, r3.Vec{X: 1}))
}

// RotY returns the quaternion rotating by angle a about the body Y axis.
func RotY(a float64) quat.Number {
	return quat.Number(r3.NewRotation(a, r3.Vec{Y: 1}))
}

// RotZ returns the quaternion rotating by angle a about the vertical axis.
func RotZ(a float64) quat.Number {
	return quat.Number(r3.NewRotation(a, r3.Vec{Z: 1}))
}

// Rotate returns v rotated by the unit quaternion q.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// BodyZ returns the body-up axis of an orientation expressed in the inertial
// frame, i.e. the third column of the rotation matrix of q.
func BodyZ(q quat.Number) r3.Vec {
	return Rotate(q, r3.Vec{Z: 1})
}

// MulElem returns the elementwise (Hadamard) product of a and b. The control
// laws use it to apply per-axis gain vectors to error vectors.
func MulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// RotationMatrix returns the 3x3 rotation matrix of the unit quaternion q.
func RotationMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// FromRotationMatrix converts a proper rotation matrix to a unit quaternion
// using Shepperd's method: the largest of the four candidate pivots is used so
// the division is always well conditioned.
func FromRotationMatrix(m mat.Matrix) quat.Number {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	tr := m00 + m11 + m22
	switch {
	case tr > m00 && tr > m11 && tr > m22:
		s := 2 * math.Sqrt(tr+1)
		return quat.Number{
			Real: s / 4,
			Imag: (m21 - m12) / s,
			Jmag: (m02 - m20) / s,
			Kmag: (m10 - m01) / s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1 + m00 - m11 - m22)
		return quat.Number{
			Real: (m21 - m12) / s,
			Imag: s / 4,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1 + m11 - m00 - m22)
		return quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: s / 4,
			Kmag: (m12 + m21) / s,
		}
	default:
		s := 2 * math.Sqrt(1 + m22 - m00 - m11)
		return quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: s / 4,
		}
	}
}
