package timeutil

import (
	"testing"
	"time"
)

func TestRealClockNow(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v outside [%v, %v]", got, before, after)
	}
}

func TestMockClockAdvance(t *testing.T) {
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", c.Now(), start)
	}

	c.Advance(40 * time.Millisecond)
	if got := c.Since(start); got != 40*time.Millisecond {
		t.Errorf("Since(start) = %v, want 40ms", got)
	}
}

func TestMockTickerFires(t *testing.T) {
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	tick := c.NewTicker(10 * time.Millisecond)

	c.Advance(10 * time.Millisecond)
	select {
	case <-tick.C():
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	tick.Stop()
	c.Advance(20 * time.Millisecond)
	select {
	case <-tick.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}
