package tracker

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/session"
	"github.com/focusmind/focustrack/internal/threshold"
)

// ErrCalibrating is returned by ProcessFrame while a calibration run holds
// the pipeline. Frame processing and calibration writes never interleave.
var ErrCalibrating = errors.New("calibration in progress")

// ErrScoreOutOfRange is returned when an externally submitted score is
// non-finite or outside [0,100]. The frame is skipped; pipeline state is
// unchanged.
var ErrScoreOutOfRange = errors.New("score out of range")

// Config wires together the pipeline stages.
type Config struct {
	Alphas   Alphas
	Fuser    FuserConfig
	Bands    []float64
	Cooldown time.Duration
}

// Result is the outcome of processing one frame.
type Result struct {
	// Score is the unrounded fused focus score.
	Score float64 `json:"score"`

	// Display is the rounded score for UI rendering.
	Display int `json:"display"`

	// SessionID identifies the session the sample was appended to.
	SessionID string `json:"session_id"`

	// Event is non-nil when this frame fired an intervention.
	Event *threshold.Event `json:"event,omitempty"`
}

// Pipeline owns all per-session mutable state: the extractor's blink
// tracker, the EMA filters, the threshold latches, and the score series.
// One Pipeline serves one tracking session at a time; concurrent sessions
// each get their own instance.
//
// Frames must arrive in timestamp order. The mutex exists only to serialize
// the per-frame path against the boundary operations (calibration, session
// reset), not to permit parallel frame processing.
type Pipeline struct {
	mu sync.Mutex

	extractor *Extractor
	smoother  *Smoother
	fuser     *Fuser
	monitor   *threshold.Monitor
	agg       *session.Aggregator

	score       float64
	events      []threshold.Event
	calibrating bool
}

// NewPipeline builds a pipeline from config and a calibration profile.
func NewPipeline(cfg Config, profile calibration.Profile) *Pipeline {
	limits := Limits{
		GazeOffset:    cfg.Fuser.GazeLimit,
		HeadDeviation: cfg.Fuser.HeadLimitDegrees,
	}
	return &Pipeline{
		extractor: NewExtractor(profile, limits),
		smoother:  NewSmoother(cfg.Alphas),
		fuser:     NewFuser(cfg.Fuser),
		monitor:   threshold.NewMonitor(cfg.Bands, cfg.Cooldown),
		agg:       session.NewAggregator(),
	}
}

// ProcessFrame runs one frame through extract → smooth → fuse → monitor →
// aggregate and returns the updated score plus any freshly fired event.
func (p *Pipeline) ProcessFrame(f FrameSample) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.calibrating {
		return Result{}, ErrCalibrating
	}

	raw := p.extractor.Extract(f)
	smoothed := p.smoother.Update(raw)
	score := p.fuser.Fuse(smoothed)

	return p.record(f.Timestamp, score), nil
}

// SubmitScore feeds a pre-computed score into the monitor and aggregator,
// bypassing extraction and smoothing. Used when tracking runs out of
// process and only the fused score crosses the wire.
func (p *Pipeline) SubmitScore(ts time.Time, score float64) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.calibrating {
		return Result{}, ErrCalibrating
	}
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 100 {
		return Result{Score: p.score, Display: DisplayScore(p.score), SessionID: p.agg.SessionID()}, ErrScoreOutOfRange
	}

	return p.record(ts, score), nil
}

// record appends the score, runs the monitor, and captures any event.
// Caller holds the lock.
func (p *Pipeline) record(ts time.Time, score float64) Result {
	ev := p.monitor.Observe(ts, score)
	p.agg.Append(ts, score)
	p.score = score
	if ev != nil {
		p.events = append(p.events, *ev)
	}

	return Result{
		Score:     score,
		Display:   DisplayScore(score),
		SessionID: p.agg.SessionID(),
		Event:     ev,
	}
}

// Score returns the most recent fused score.
func (p *Pipeline) Score() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// SessionID returns the active session's ID.
func (p *Pipeline) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agg.SessionID()
}

// Snapshot returns mid-session aggregates without closing the session.
func (p *Pipeline) Snapshot() session.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agg.Snapshot()
}

// CloseAndReset finalizes the active session and clears every piece of
// per-session state: the score series, the EMA filters, the blink tracker,
// and the threshold latches. The next frame starts a brand-new session.
func (p *Pipeline) CloseAndReset() (session.Summary, []session.Sample, []threshold.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sum, series := p.agg.CloseAndReset()
	events := p.events

	p.events = nil
	p.score = 0
	p.smoother.Reset()
	p.extractor.Reset()
	p.monitor.Reset()

	return sum, series, events
}

// BeginCalibration puts the pipeline into calibration mode, rejecting
// frames until EndCalibration. Returns false if a calibration is already
// in progress.
func (p *Pipeline) BeginCalibration() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calibrating {
		return false
	}
	p.calibrating = true
	return true
}

// EndCalibration leaves calibration mode, installing the new profile if one
// was produced.
func (p *Pipeline) EndCalibration(profile *calibration.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if profile != nil {
		p.extractor.SetProfile(*profile)
	}
	p.calibrating = false
}

// Measure exposes the extractor's raw measurement for calibration capture.
func (p *Pipeline) Measure(f FrameSample) (calibration.Measurement, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.extractor.Measure(f)
}
