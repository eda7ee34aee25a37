package tracker

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/focusmind/focustrack/internal/calibration"
)

func testPipelineConfig() Config {
	return Config{
		// Alpha 1 disables smoothing so expectations are exact.
		Alphas:   Alphas{Presence: 1, EyeOpenness: 1, Gaze: 1, Head: 1, Blink: 1},
		Fuser:    testFuserConfig(),
		Bands:    []float64{80, 60, 50, 40},
		Cooldown: 10 * time.Second,
	}
}

func attentiveFrame(ms int) FrameSample {
	p := calibration.DefaultProfile()
	f := derivedFrame(ms, p.NeutralOpenness)
	return f
}

func TestProcessFrame_PerfectAttention(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())

	res, err := p.ProcessFrame(attentiveFrame(0))
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if res.Score != 100 {
		t.Errorf("Score = %.4f, want 100", res.Score)
	}
	if res.Display != 100 {
		t.Errorf("Display = %d, want 100", res.Display)
	}
	if res.SessionID == "" {
		t.Error("result carries no session ID")
	}
	if res.Event != nil {
		t.Error("perfect frame fired an event")
	}
}

func TestProcessFrame_SmoothedDropout(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.Alphas = Alphas{Presence: 0.6, EyeOpenness: 0.35, Gaze: 0.25, Head: 0.3, Blink: 0.3}
	p := NewPipeline(cfg, calibration.DefaultProfile())

	for ms := 0; ms < 330; ms += 33 {
		if _, err := p.ProcessFrame(attentiveFrame(ms)); err != nil {
			t.Fatal(err)
		}
	}
	steady := p.Score()

	// One dropout frame dips the score but not to zero.
	res, err := p.ProcessFrame(FrameSample{Timestamp: frameAt(330), Present: false})
	if err != nil {
		t.Fatal(err)
	}
	if res.Score >= steady {
		t.Errorf("dropout did not lower the score: %.2f -> %.2f", steady, res.Score)
	}
	if res.Score == 0 {
		t.Error("single dropout frame zeroed the score")
	}

	// Sustained absence drives it to zero.
	for ms := 363; ms < 5000; ms += 33 {
		res, err = p.ProcessFrame(FrameSample{Timestamp: frameAt(ms), Present: false})
		if err != nil {
			t.Fatal(err)
		}
	}
	if res.Score > 0.5 {
		t.Errorf("sustained absence score = %.4f, want near 0", res.Score)
	}
}

func TestSubmitScore_DrivesMonitor(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())

	if _, err := p.SubmitScore(frameAt(0), 95); err != nil {
		t.Fatal(err)
	}
	res, err := p.SubmitScore(frameAt(1000), 75)
	if err != nil {
		t.Fatal(err)
	}
	if res.Event == nil || res.Event.Band != 80 {
		t.Errorf("Event = %v, want band 80", res.Event)
	}
}

func TestSubmitScore_RejectsOutOfRange(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())
	if _, err := p.SubmitScore(frameAt(0), 70); err != nil {
		t.Fatal(err)
	}

	for _, bad := range []float64{-1, 101, math.NaN(), math.Inf(1)} {
		res, err := p.SubmitScore(frameAt(1000), bad)
		if !errors.Is(err, ErrScoreOutOfRange) {
			t.Errorf("SubmitScore(%v) error = %v, want ErrScoreOutOfRange", bad, err)
		}
		if res.Score != 70 {
			t.Errorf("rejected submit changed the reported score: %.2f", res.Score)
		}
	}

	if p.Score() != 70 {
		t.Errorf("pipeline score = %.2f after rejected submits, want 70", p.Score())
	}
	if p.Snapshot().SampleCount != 1 {
		t.Error("rejected submits were appended to the session")
	}
}

func TestCalibration_ExcludesScoring(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())

	if !p.BeginCalibration() {
		t.Fatal("BeginCalibration refused on an idle pipeline")
	}
	if p.BeginCalibration() {
		t.Error("second BeginCalibration succeeded while one is active")
	}

	if _, err := p.ProcessFrame(attentiveFrame(0)); !errors.Is(err, ErrCalibrating) {
		t.Errorf("ProcessFrame error = %v, want ErrCalibrating", err)
	}
	if _, err := p.SubmitScore(frameAt(0), 50); !errors.Is(err, ErrCalibrating) {
		t.Errorf("SubmitScore error = %v, want ErrCalibrating", err)
	}

	p.EndCalibration(nil)
	if _, err := p.ProcessFrame(attentiveFrame(100)); err != nil {
		t.Errorf("ProcessFrame after EndCalibration: %v", err)
	}
}

func TestEndCalibration_InstallsProfile(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())

	wider := calibration.DefaultProfile()
	wider.NeutralOpenness = 0.56
	p.BeginCalibration()
	p.EndCalibration(&wider)

	// With a doubled neutral, the default openness now reads as half open.
	res, err := p.ProcessFrame(attentiveFrame(0))
	if err != nil {
		t.Fatal(err)
	}
	if res.Score >= 100 {
		t.Errorf("Score = %.4f, want below 100 under the new baseline", res.Score)
	}
}

func TestCloseAndReset_FreshSession(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())

	firstID := p.SessionID()
	if _, err := p.SubmitScore(frameAt(0), 95); err != nil {
		t.Fatal(err)
	}
	if _, err := p.SubmitScore(frameAt(1000), 75); err != nil {
		t.Fatal(err)
	}

	sum, series, events := p.CloseAndReset()
	if sum.SessionID != firstID {
		t.Errorf("summary session = %s, want %s", sum.SessionID, firstID)
	}
	if len(series) != 2 {
		t.Errorf("series length = %d, want 2", len(series))
	}
	if len(events) != 1 || events[0].Band != 80 {
		t.Errorf("events = %v, want one band-80 event", events)
	}

	// Everything per-session is gone: new ID, zero score, re-armed monitor.
	if p.SessionID() == firstID {
		t.Error("session ID unchanged after reset")
	}
	if p.Score() != 0 {
		t.Errorf("score = %.2f after reset, want 0", p.Score())
	}
	if p.Snapshot().HasData {
		t.Error("fresh session reports HasData")
	}

	// The monitor re-fires the full ladder in the new session.
	if _, err := p.SubmitScore(frameAt(2000), 95); err != nil {
		t.Fatal(err)
	}
	res, err := p.SubmitScore(frameAt(3000), 75)
	if err != nil {
		t.Fatal(err)
	}
	if res.Event == nil || res.Event.Band != 80 {
		t.Errorf("post-reset event = %v, want band 80", res.Event)
	}
}

func TestCloseAndReset_EmptySession(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), calibration.DefaultProfile())

	sum, series, events := p.CloseAndReset()
	if sum.HasData {
		t.Error("empty session reports HasData")
	}
	if len(series) != 0 || len(events) != 0 {
		t.Error("empty session returned samples or events")
	}
}
