package main

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestReferenceStateStartsAtOrigin(t *testing.T) {
	des := referenceState(0)
	if r3.Norm(des.Position) != 0 {
		t.Errorf("position at t=0 = %+v, want origin", des.Position)
	}
	if r3.Norm(des.Velocity) != 0 {
		t.Errorf("velocity at t=0 = %+v, want zero", des.Velocity)
	}
}

func TestReferenceStateVelocityConsistent(t *testing.T) {
	// The stated velocity must match the finite difference of position across
	// both trajectory segments.
	const h = time.Millisecond
	for _, at := range []time.Duration{
		500 * time.Millisecond,
		2 * time.Second,
		5 * time.Second,
		20 * time.Second,
	} {
		a := referenceState(at - h).Position
		b := referenceState(at + h).Position
		numeric := r3.Scale(1/(2*h.Seconds()), r3.Sub(b, a))
		stated := referenceState(at).Velocity
		if d := r3.Norm(r3.Sub(numeric, stated)); d > 1e-3 {
			t.Errorf("t=%s: |numeric - stated velocity| = %v", at, d)
		}
	}
}

func TestReferenceStateContinuousAtHandoff(t *testing.T) {
	// Position and velocity must not jump when the climb hands off to the
	// circle at t=3s.
	before := referenceState(3*time.Second - time.Millisecond)
	after := referenceState(3*time.Second + time.Millisecond)
	if d := r3.Norm(r3.Sub(after.Position, before.Position)); d > 1e-2 {
		t.Errorf("position jump %v at segment handoff", d)
	}
	if d := r3.Norm(r3.Sub(after.Velocity, before.Velocity)); d > 1e-2 {
		t.Errorf("velocity jump %v at segment handoff", d)
	}
}

func TestReferenceStateAltitudeHold(t *testing.T) {
	for _, at := range []time.Duration{4 * time.Second, 10 * time.Second, 60 * time.Second} {
		if z := referenceState(at).Position.Z; math.Abs(z-2) > 1e-12 {
			t.Errorf("t=%s: altitude = %v, want 2", at, z)
		}
	}
}
