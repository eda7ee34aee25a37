package tracker

import (
	"math"
	"testing"
)

func testFuserConfig() FuserConfig {
	return FuserConfig{
		Weights:           Weights{Presence: 0.30, Gaze: 0.25, Eyes: 0.20, Head: 0.15, Blink: 0.10},
		PresenceThreshold: 0.5,
		GazeLimit:         1.0,
		HeadLimitDegrees:  45,
		BlinkCenter:       20,
		BlinkSpan:         80,
	}
}

func TestFuse_PerfectAttentionScoresFull(t *testing.T) {
	f := NewFuser(testFuserConfig())
	got := f.Fuse(Signals{Presence: 1, EyeOpenness: 1, GazeOffset: 0, HeadDeviation: 0, BlinkRate: 0})
	if got != 100 {
		t.Errorf("perfect attention = %.4f, want 100", got)
	}
}

func TestFuse_ComfortableBlinkRateScoresFull(t *testing.T) {
	f := NewFuser(testFuserConfig())
	got := f.Fuse(Signals{Presence: 1, EyeOpenness: 1, BlinkRate: 20})
	if got != 100 {
		t.Errorf("blink at center = %.4f, want 100", got)
	}
}

func TestFuse_WorstCaseScoresZero(t *testing.T) {
	f := NewFuser(testFuserConfig())
	got := f.Fuse(Signals{Presence: 0, EyeOpenness: 0, GazeOffset: 5, HeadDeviation: 180, BlinkRate: 0})
	if got != 0 {
		t.Errorf("worst case = %.4f, want 0", got)
	}
}

func TestFuse_AlwaysInRange(t *testing.T) {
	f := NewFuser(testFuserConfig())
	inputs := []Signals{
		{Presence: 1, EyeOpenness: 5, GazeOffset: -3, HeadDeviation: -10, BlinkRate: 500},
		{Presence: 0.5, EyeOpenness: 0.5, GazeOffset: 0.5, HeadDeviation: 20, BlinkRate: 15},
		{Presence: 0.01, EyeOpenness: 1, GazeOffset: 0, HeadDeviation: 0, BlinkRate: 0},
	}
	for _, s := range inputs {
		got := f.Fuse(s)
		if got < 0 || got > 100 || math.IsNaN(got) {
			t.Errorf("Fuse(%+v) = %.4f, outside [0,100]", s, got)
		}
	}
}

func TestFuse_PresenceGate(t *testing.T) {
	f := NewFuser(testFuserConfig())

	// Everything else perfect; presence at half the threshold halves the
	// gated score.
	base := Signals{Presence: 0.25, EyeOpenness: 1, GazeOffset: 0, HeadDeviation: 0, BlinkRate: 0}
	want := 100 * (0.30*0.25 + 0.25 + 0.20 + 0.15 + 0.10) * (0.25 / 0.5)
	got := f.Fuse(base)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("gated score = %.4f, want %.4f", got, want)
	}

	// Fully absent means zero regardless of the other signals.
	if got := f.Fuse(Signals{Presence: 0, EyeOpenness: 1}); got != 0 {
		t.Errorf("absent score = %.4f, want 0", got)
	}
}

func TestFuse_PresenceGateContinuousAtThreshold(t *testing.T) {
	f := NewFuser(testFuserConfig())
	sig := Signals{EyeOpenness: 1, GazeOffset: 0, HeadDeviation: 0}

	sig.Presence = 0.5
	above := f.Fuse(sig)
	sig.Presence = 0.5 - 1e-9
	below := f.Fuse(sig)

	if math.Abs(above-below) > 1e-4 {
		t.Errorf("score jumps at the presence threshold: %.6f vs %.6f", above, below)
	}
}

func TestFuse_GazeMonotonic(t *testing.T) {
	f := NewFuser(testFuserConfig())
	prev := math.Inf(1)
	for _, offset := range []float64{0, 0.25, 0.5, 0.75, 1.0, 2.0} {
		got := f.Fuse(Signals{Presence: 1, EyeOpenness: 1, GazeOffset: offset})
		if got > prev {
			t.Errorf("score increased as gaze drifted: offset %.2f -> %.4f", offset, got)
		}
		prev = got
	}
}

func TestFuse_BlinkPenaltyCapped(t *testing.T) {
	f := NewFuser(testFuserConfig())

	// Even an absurd rate only costs the capped blink penalty.
	extreme := f.Fuse(Signals{Presence: 1, EyeOpenness: 1, BlinkRate: 500})
	want := 100 * (1 - 0.10*maxBlinkPenalty)
	if math.Abs(extreme-want) > 1e-9 {
		t.Errorf("extreme blink rate = %.4f, want %.4f", extreme, want)
	}
}

func TestNewFuser_RenormalizesWeights(t *testing.T) {
	cfg := testFuserConfig()
	cfg.Weights = Weights{Presence: 2, Gaze: 2, Eyes: 2, Head: 2, Blink: 2}
	f := NewFuser(cfg)

	if got := f.Fuse(Signals{Presence: 1, EyeOpenness: 1}); got != 100 {
		t.Errorf("renormalized perfect score = %.4f, want 100", got)
	}
	// Only presence attentive, equal weights: one fifth of the range, then
	// no gate since presence is full.
	got := f.Fuse(Signals{Presence: 1, EyeOpenness: 0, GazeOffset: 1, HeadDeviation: 45, BlinkRate: 120})
	want := 100 * (0.2 + 0.2*(1-maxBlinkPenalty))
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("renormalized partial score = %.4f, want %.4f", got, want)
	}
}

func TestNewFuser_ZeroLimitsFallBack(t *testing.T) {
	cfg := testFuserConfig()
	cfg.GazeLimit = 0
	cfg.HeadLimitDegrees = 0
	f := NewFuser(cfg)

	// A zero offset over a zero limit must not turn into NaN.
	got := f.Fuse(Signals{Presence: 1, EyeOpenness: 1, GazeOffset: 0, HeadDeviation: 0, BlinkRate: 20})
	if math.IsNaN(got) {
		t.Fatal("zero limits produced NaN")
	}
	if got != 100 {
		t.Errorf("perfect attention with fallback limits = %.4f, want 100", got)
	}

	// Fallback limits still normalize non-zero offsets.
	drifted := f.Fuse(Signals{Presence: 1, EyeOpenness: 1, GazeOffset: fallbackGazeLimit / 2, BlinkRate: 20})
	if math.IsNaN(drifted) || drifted >= got {
		t.Errorf("drifted gaze with fallback limits = %.4f, want finite and below %.4f", drifted, got)
	}
}

func TestDisplayScore(t *testing.T) {
	cases := map[float64]int{0: 0, 49.4: 49, 49.5: 50, 99.99: 100, 100: 100}
	for in, want := range cases {
		if got := DisplayScore(in); got != want {
			t.Errorf("DisplayScore(%.2f) = %d, want %d", in, got, want)
		}
	}
}
