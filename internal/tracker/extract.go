package tracker

import (
	"math"
	"time"

	"github.com/focusmind/focustrack/internal/calibration"
)

// closedOpenness is the normalized eye-openness level below which the eyes
// count as closed for blink detection.
const closedOpenness = 0.3

// minBlinkDuration filters single-frame detector flickers out of the blink
// count.
const minBlinkDuration = 100 * time.Millisecond

// minRateWindow keeps the blink rate from exploding right after session
// start, before a meaningful amount of time has elapsed.
const minRateWindow = 30 * time.Second

// Limits are the worst-case signal magnitudes the extractor reports when a
// frame carries no usable face data. They match the fuser's normalization
// limits so a missing face maps exactly onto "fully inattentive".
type Limits struct {
	GazeOffset    float64
	HeadDeviation float64
}

// Extractor derives primitive signals from frame samples, normalizing gaze
// and head pose against the user's calibration profile.
//
// The extractor is stateful only for blink tracking (closed-eye spans across
// frames); everything else is a pure per-frame computation.
type Extractor struct {
	profile calibration.Profile
	limits  Limits

	start       time.Time
	closedSince time.Time
	inBlink     bool
	blinkCount  int
}

// NewExtractor creates an extractor using the given calibration profile.
func NewExtractor(profile calibration.Profile, limits Limits) *Extractor {
	return &Extractor{profile: profile, limits: limits}
}

// SetProfile swaps in a freshly calibrated profile. Blink state carries over.
func (e *Extractor) SetProfile(profile calibration.Profile) {
	e.profile = profile
}

// Reset clears blink-tracking state at a session boundary.
func (e *Extractor) Reset() {
	e.start = time.Time{}
	e.closedSince = time.Time{}
	e.inBlink = false
	e.blinkCount = 0
}

// Extract derives the primitive-signal tuple for one frame.
//
// A frame with no face, or with malformed landmark data, yields worst-case
// attention values rather than an error: presence 0, eyes closed, gaze and
// head pinned at their normalization limits. Downstream stages never need a
// missing-data branch.
func (e *Extractor) Extract(f FrameSample) Signals {
	if e.start.IsZero() {
		e.start = f.Timestamp
	}

	m, ok := e.Measure(f)
	if !ok {
		return Signals{
			Presence:      0,
			EyeOpenness:   0,
			GazeOffset:    e.limits.GazeOffset,
			HeadDeviation: e.limits.HeadDeviation,
			BlinkRate:     e.blinkRate(f.Timestamp),
		}
	}

	openness := clamp01(m.Openness / e.profile.NeutralOpenness)
	e.trackBlink(f.Timestamp, openness)

	gazeOffset := math.Hypot(m.GazeX-e.profile.NeutralGazeX, m.GazeY-e.profile.NeutralGazeY) / e.profile.GazeScale
	headDeviation := math.Hypot(m.Yaw-e.profile.NeutralYaw, m.Pitch-e.profile.NeutralPitch)

	return Signals{
		Presence:      1,
		EyeOpenness:   openness,
		GazeOffset:    gazeOffset,
		HeadDeviation: headDeviation,
		BlinkRate:     e.blinkRate(f.Timestamp),
	}
}

// Measure extracts the raw, un-normalized measurement from a frame, for use
// by the calibration routine. ok is false when the frame has no face or its
// landmark data is unusable.
func (e *Extractor) Measure(f FrameSample) (calibration.Measurement, bool) {
	if !f.Present {
		return calibration.Measurement{}, false
	}

	openness, ok := rawOpenness(f)
	if !ok {
		return calibration.Measurement{}, false
	}
	gaze, ok := rawGaze(f)
	if !ok {
		return calibration.Measurement{}, false
	}
	if !isFinite(f.HeadYaw) || !isFinite(f.HeadPitch) {
		return calibration.Measurement{}, false
	}

	return calibration.Measurement{
		GazeX:    gaze.X,
		GazeY:    gaze.Y,
		Openness: openness,
		Yaw:      f.HeadYaw,
		Pitch:    f.HeadPitch,
	}, true
}

// trackBlink updates the closed-eye span tracker and blink counter using
// frame timestamps only.
func (e *Extractor) trackBlink(ts time.Time, openness float64) {
	if openness < closedOpenness {
		if e.closedSince.IsZero() {
			e.closedSince = ts
		}
		if !e.inBlink && ts.Sub(e.closedSince) >= minBlinkDuration {
			e.blinkCount++
			e.inBlink = true
		}
		return
	}
	e.closedSince = time.Time{}
	e.inBlink = false
}

// blinkRate returns blinks per minute over the elapsed session time, with a
// floor on the window so the first few frames cannot report absurd rates.
func (e *Extractor) blinkRate(ts time.Time) float64 {
	if e.blinkCount == 0 {
		return 0
	}
	elapsed := ts.Sub(e.start)
	if elapsed < minRateWindow {
		elapsed = minRateWindow
	}
	return float64(e.blinkCount) / elapsed.Minutes()
}

// rawOpenness derives the average eye-aspect ratio from the landmark vector,
// or falls back to the detector-provided per-eye values.
func rawOpenness(f FrameSample) (float64, bool) {
	if len(f.Landmarks) >= minLandmarks {
		right, okR := eyeAspect(f.Landmarks, rightEyeOuter, rightEyeInner, rightEyeUpper, rightEyeLower)
		left, okL := eyeAspect(f.Landmarks, leftEyeOuter, leftEyeInner, leftEyeUpper, leftEyeLower)
		if okR && okL {
			return (right + left) / 2, true
		}
		return 0, false
	}

	if len(f.EyeOpenness) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range f.EyeOpenness {
		if !isFinite(v) || v < 0 {
			return 0, false
		}
		sum += v
	}
	return sum / float64(len(f.EyeOpenness)), true
}

// eyeAspect computes vertical opening over horizontal width for one eye.
func eyeAspect(pts []Point, outer, inner, upper, lower int) (float64, bool) {
	width := dist(pts[outer], pts[inner])
	if width == 0 {
		return 0, false
	}
	ratio := dist(pts[upper], pts[lower]) / width
	if !isFinite(ratio) {
		return 0, false
	}
	return ratio, true
}

// rawGaze derives the averaged iris position inside the two eye boxes, or
// falls back to a detector-provided gaze vector.
func rawGaze(f FrameSample) (GazeVector, bool) {
	if len(f.Landmarks) >= minLandmarks {
		right, okR := irisPosition(f.Landmarks, rightEyeOuter, rightEyeInner, rightEyeUpper, rightEyeLower, rightEyeIris)
		left, okL := irisPosition(f.Landmarks, leftEyeOuter, leftEyeInner, leftEyeUpper, leftEyeLower, leftEyeIris)
		if okR && okL {
			return GazeVector{X: (right.X + left.X) / 2, Y: (right.Y + left.Y) / 2}, true
		}
		return GazeVector{}, false
	}

	if f.Gaze == nil || !isFinite(f.Gaze.X) || !isFinite(f.Gaze.Y) {
		return GazeVector{}, false
	}
	return *f.Gaze, true
}

// irisPosition returns the iris center as a fraction of the eye box:
// (0,0) at the outer-upper corner, (1,1) at the inner-lower corner.
func irisPosition(pts []Point, outer, inner, upper, lower, iris int) (GazeVector, bool) {
	eyeW := pts[inner].X - pts[outer].X
	eyeH := pts[lower].Y - pts[upper].Y
	if eyeW == 0 || eyeH == 0 {
		return GazeVector{}, false
	}
	v := GazeVector{
		X: (pts[iris].X - pts[outer].X) / eyeW,
		Y: (pts[iris].Y - pts[upper].Y) / eyeH,
	}
	if !isFinite(v.X) || !isFinite(v.Y) {
		return GazeVector{}, false
	}
	return v, true
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
