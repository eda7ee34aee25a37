package tracker

import (
	"math"
	"testing"
)

func TestEMA_FirstSampleSeeds(t *testing.T) {
	e := NewEMA(0.2)
	if got := e.Update(80); got != 80 {
		t.Errorf("first update = %.2f, want 80 (seeded, no warm-up)", got)
	}
}

func TestEMA_UpdateFormula(t *testing.T) {
	e := NewEMA(0.5)
	e.Update(0)
	if got := e.Update(10); got != 5 {
		t.Errorf("update = %.2f, want 5", got)
	}
	if got := e.Update(10); got != 7.5 {
		t.Errorf("update = %.2f, want 7.5", got)
	}
}

func TestEMA_OutputStaysWithinInputRange(t *testing.T) {
	e := NewEMA(0.3)
	inputs := []float64{40, 90, 10, 70, 100, 0, 55}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range inputs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		got := e.Update(v)
		if got < lo || got > hi {
			t.Errorf("filtered value %.2f escaped input range [%.2f, %.2f]", got, lo, hi)
		}
	}
}

func TestEMA_AlphaOneDisablesSmoothing(t *testing.T) {
	e := NewEMA(1)
	e.Update(100)
	if got := e.Update(3); got != 3 {
		t.Errorf("alpha=1 update = %.2f, want 3", got)
	}
}

func TestEMA_AlphaClamped(t *testing.T) {
	e := NewEMA(0)
	e.Update(0)
	if got := e.Update(100); got <= 0 {
		t.Errorf("clamped alpha produced no movement: %.3f", got)
	}

	e = NewEMA(5)
	e.Update(0)
	if got := e.Update(100); got != 100 {
		t.Errorf("alpha>1 should clamp to 1, got %.2f", got)
	}
}

func TestEMA_Reset(t *testing.T) {
	e := NewEMA(0.1)
	e.Update(100)
	e.Update(90)

	e.Reset()
	if e.Value() != 0 {
		t.Errorf("Value after reset = %.2f, want 0", e.Value())
	}
	if got := e.Update(7); got != 7 {
		t.Errorf("first update after reset = %.2f, want 7 (re-seeded)", got)
	}
}

func TestSmoother_PerSignalAlphas(t *testing.T) {
	s := NewSmoother(Alphas{Presence: 1, EyeOpenness: 0.5, Gaze: 0.5, Head: 0.5, Blink: 0.5})

	s.Update(Signals{Presence: 1, EyeOpenness: 1, GazeOffset: 0, HeadDeviation: 0, BlinkRate: 0})
	got := s.Update(Signals{Presence: 0, EyeOpenness: 0, GazeOffset: 1, HeadDeviation: 10, BlinkRate: 20})

	if got.Presence != 0 {
		t.Errorf("presence (alpha=1) = %.2f, want 0", got.Presence)
	}
	if got.EyeOpenness != 0.5 {
		t.Errorf("eye openness = %.2f, want 0.5", got.EyeOpenness)
	}
	if got.GazeOffset != 0.5 {
		t.Errorf("gaze offset = %.2f, want 0.5", got.GazeOffset)
	}
	if got.HeadDeviation != 5 {
		t.Errorf("head deviation = %.2f, want 5", got.HeadDeviation)
	}
	if got.BlinkRate != 10 {
		t.Errorf("blink rate = %.2f, want 10", got.BlinkRate)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(Alphas{Presence: 0.1, EyeOpenness: 0.1, Gaze: 0.1, Head: 0.1, Blink: 0.1})
	s.Update(Signals{Presence: 1, EyeOpenness: 1})

	s.Reset()
	got := s.Update(Signals{Presence: 0.3, EyeOpenness: 0.4})
	if got.Presence != 0.3 || got.EyeOpenness != 0.4 {
		t.Errorf("post-reset update = %+v, want re-seeded values", got)
	}
}
