package calibration

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MinSamples is the minimum number of usable neutral-pose measurements a
// calibration run must collect before a profile is produced.
const MinSamples = 10

// Measurement is one raw neutral-pose observation collected during a
// calibration burst. Values come straight from the signal extractor with no
// baseline applied.
type Measurement struct {
	GazeX    float64 // iris position across the eye box, [0,1]
	GazeY    float64 // iris position down the eye box, [0,1]
	Openness float64 // raw eye-aspect ratio
	Yaw      float64 // degrees
	Pitch    float64 // degrees
}

// Compute derives a calibration profile from a burst of neutral-pose
// measurements. Medians are used throughout so a few blinks or glances
// during the capture do not skew the baseline.
//
// Compute never partially succeeds: it either returns a validated profile
// or an error, in which case the caller keeps whatever profile was
// previously in effect.
func Compute(samples []Measurement, now time.Time) (Profile, error) {
	usable := samples[:0:0]
	for _, s := range samples {
		if !finite(s.GazeX) || !finite(s.GazeY) || !finite(s.Openness) || !finite(s.Yaw) || !finite(s.Pitch) {
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) < MinSamples {
		return Profile{}, fmt.Errorf("calibration needs at least %d usable samples, got %d", MinSamples, len(usable))
	}

	gx := make([]float64, len(usable))
	gy := make([]float64, len(usable))
	op := make([]float64, len(usable))
	yaw := make([]float64, len(usable))
	pitch := make([]float64, len(usable))
	for i, s := range usable {
		gx[i] = s.GazeX
		gy[i] = s.GazeY
		op[i] = s.Openness
		yaw[i] = s.Yaw
		pitch[i] = s.Pitch
	}

	p := Profile{
		NeutralGazeX:    median(gx),
		NeutralGazeY:    median(gy),
		NeutralOpenness: median(op),
		NeutralYaw:      median(yaw),
		NeutralPitch:    median(pitch),
		CalibratedAt:    now,
	}

	// Scale the gaze normalization by the observed spread: a jittery capture
	// means this user's "neutral" wanders more, so the tolerance widens.
	// The floor keeps a rock-steady capture from making the gaze signal
	// hypersensitive.
	spread := math.Hypot(span(gx), span(gy))
	p.GazeScale = math.Max(DefaultProfile().GazeScale, spread*2)

	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("implausible calibration: %w", err)
	}
	return p, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func median(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// span returns the distance between the 10th and 90th percentile, a robust
// width estimate for the captured values.
func span(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	lo := s[len(s)/10]
	hi := s[len(s)-1-len(s)/10]
	return hi - lo
}
