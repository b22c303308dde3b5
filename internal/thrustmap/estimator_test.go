package thrustmap

import (
	"math"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		ForgettingFactor: 0.998,
		Gravity:          9.81,
		HoverPercentage:  0.3,
	}
}

func TestNewSeedsGainFromHover(t *testing.T) {
	e := New(testConfig())

	want := 9.81 / 0.3
	if e.Gain() != want {
		t.Errorf("seed gain = %v, want %v", e.Gain(), want)
	}
	if e.Covariance() != ResetCovariance {
		t.Errorf("seed covariance = %v, want %v", e.Covariance(), ResetCovariance)
	}
}

func TestRLSConvergence(t *testing.T) {
	// Noiseless observations at a fixed 40ms lag must drive the estimate to
	// the true gain, with covariance non-increasing across updates.
	const trueGain = 25.0
	e := New(testConfig())

	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	lag := 40 * time.Millisecond
	updates := 0
	lastCov := e.Covariance()

	for i := 0; i < 80; i++ {
		now := start.Add(time.Duration(i) * 10 * time.Millisecond)
		thrust := 0.2 + 0.01*float64(i%20)
		e.RecordCommand(thrust, now)

		// The measurement arriving now corresponds to the command issued one
		// lag earlier; replay that command's thrust through the true model.
		sent := now.Add(-lag)
		var measured float64
		found := false
		for _, s := range e.history {
			if s.Time.Equal(sent) {
				measured = trueGain * s.Thrust
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if e.TryUpdate(measured, now) {
			updates++
			if e.Covariance() > lastCov+1e-12 {
				t.Errorf("covariance increased on update %d: %v -> %v", updates, lastCov, e.Covariance())
			}
			lastCov = e.Covariance()
		}
	}

	if updates < 50 {
		t.Fatalf("expected at least 50 updates, got %d", updates)
	}
	if rel := math.Abs(e.Gain()-trueGain) / trueGain; rel > 0.01 {
		t.Errorf("gain = %v, want within 1%% of %v (rel err %v)", e.Gain(), trueGain, rel)
	}
}

func TestWindowingBoundary(t *testing.T) {
	e := New(testConfig())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	e.RecordCommand(0.3, start)

	// At 34ms the sample is too young: no update, sample retained.
	if e.TryUpdate(10.0, start.Add(34*time.Millisecond)) {
		t.Error("expected no update for a 34ms-old sample")
	}
	if e.HistoryLen() != 1 {
		t.Fatalf("sample should be retained, history = %d", e.HistoryLen())
	}

	// At 36ms the same sample is in-window: consumed, update performed.
	if !e.TryUpdate(10.0, start.Add(36*time.Millisecond)) {
		t.Error("expected an update for a 36ms-old sample")
	}
	if e.HistoryLen() != 0 {
		t.Errorf("sample should be consumed, history = %d", e.HistoryLen())
	}
}

func TestStaleSampleDiscarded(t *testing.T) {
	e := New(testConfig())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	e.RecordCommand(0.3, start)                          // will be 46ms old
	e.RecordCommand(0.4, start.Add(6*time.Millisecond)) // will be 40ms old

	gainBefore := e.Gain()
	now := start.Add(46 * time.Millisecond)
	if !e.TryUpdate(0.4*25.0, now) {
		t.Fatal("expected the in-window sample to produce an update")
	}
	if e.HistoryLen() != 0 {
		t.Errorf("both samples should be gone, history = %d", e.HistoryLen())
	}
	// The update must have used the 0.4 sample: with a noiseless observation at
	// the assumed gain the estimate moves toward 25, not away from it.
	if math.Abs(e.Gain()-25.0) >= math.Abs(gainBefore-25.0) {
		t.Errorf("gain did not move toward the in-window observation: %v -> %v", gainBefore, e.Gain())
	}
}

func TestOneUpdatePerCall(t *testing.T) {
	e := New(testConfig())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	// Two samples both inside the usable window.
	e.RecordCommand(0.3, start)
	e.RecordCommand(0.35, start.Add(2*time.Millisecond))

	now := start.Add(40 * time.Millisecond)
	if !e.TryUpdate(8.0, now) {
		t.Fatal("expected an update")
	}
	if e.HistoryLen() != 1 {
		t.Errorf("only one sample may be consumed per call, history = %d", e.HistoryLen())
	}
}

func TestEmptyHistory(t *testing.T) {
	e := New(testConfig())
	if e.TryUpdate(9.81, time.Now()) {
		t.Error("expected false with no queued samples")
	}
}

func TestHistoryBound(t *testing.T) {
	e := New(testConfig())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 150; i++ {
		e.RecordCommand(float64(i), start.Add(time.Duration(i)*time.Millisecond))
	}
	if e.HistoryLen() != MaxHistory {
		t.Fatalf("history = %d, want %d", e.HistoryLen(), MaxHistory)
	}
	// The 50 oldest were evicted: the front sample is command #50.
	if e.history[0].Thrust != 50 {
		t.Errorf("front sample thrust = %v, want 50", e.history[0].Thrust)
	}
}

func TestResetKeepsHistory(t *testing.T) {
	e := New(testConfig())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	e.RecordCommand(0.3, start)
	e.TryUpdate(7.5, start.Add(40*time.Millisecond))
	e.RecordCommand(0.31, start.Add(50*time.Millisecond))

	e.Reset()
	if e.Gain() != 9.81/0.3 {
		t.Errorf("gain after reset = %v, want %v", e.Gain(), 9.81/0.3)
	}
	if e.Covariance() != ResetCovariance {
		t.Errorf("covariance after reset = %v, want %v", e.Covariance(), ResetCovariance)
	}
	if e.HistoryLen() != 1 {
		t.Errorf("reset must not clear the sample history, got %d", e.HistoryLen())
	}
}
