package tracker

import "math"

// Weights are the fusion weights for the focus-score model. They should sum
// to 1; NewFuser renormalizes if they do not, so a user tweaking one weight
// in config does not silently rescale the score range.
type Weights struct {
	Presence float64 `mapstructure:"presence"`
	Gaze     float64 `mapstructure:"gaze"`
	Eyes     float64 `mapstructure:"eyes"`
	Head     float64 `mapstructure:"head"`
	Blink    float64 `mapstructure:"blink"`
}

// FuserConfig holds the fusion weights and normalization parameters.
type FuserConfig struct {
	Weights Weights

	// PresenceThreshold is the smoothed-presence level below which the
	// score is pulled toward zero regardless of the other signals.
	PresenceThreshold float64

	// GazeLimit is the gaze offset (in profile scale units) at which the
	// gaze signal bottoms out.
	GazeLimit float64

	// HeadLimitDegrees is the head deviation at which the head signal
	// bottoms out.
	HeadLimitDegrees float64

	// BlinkCenter and BlinkSpan define the blink comfort band: a rate at
	// BlinkCenter scores 1.0, degrading linearly over BlinkSpan. The blink
	// penalty is capped so blinking alone never tanks the score.
	BlinkCenter float64
	BlinkSpan   float64
}

// maxBlinkPenalty caps how much an unusual blink rate can subtract from the
// blink signal.
const maxBlinkPenalty = 0.3

// Fallback normalization limits. A non-positive limit from config would put
// a zero denominator under the gaze or head signal.
const (
	fallbackGazeLimit        = 1.0
	fallbackHeadLimitDegrees = 45.0
)

// Fuser combines a smoothed signal tuple into one focus score. It is
// stateless; all state lives in the smoother upstream.
type Fuser struct {
	cfg FuserConfig
}

// NewFuser creates a fuser, renormalizing the weights to sum to 1 and
// replacing unusable normalization limits with safe fallbacks.
func NewFuser(cfg FuserConfig) *Fuser {
	if cfg.GazeLimit <= 0 || math.IsNaN(cfg.GazeLimit) {
		cfg.GazeLimit = fallbackGazeLimit
	}
	if cfg.HeadLimitDegrees <= 0 || math.IsNaN(cfg.HeadLimitDegrees) {
		cfg.HeadLimitDegrees = fallbackHeadLimitDegrees
	}

	w := &cfg.Weights
	total := w.Presence + w.Gaze + w.Eyes + w.Head + w.Blink
	if total > 0 && math.Abs(total-1) > 1e-9 {
		w.Presence /= total
		w.Gaze /= total
		w.Eyes /= total
		w.Head /= total
		w.Blink /= total
	}
	return &Fuser{cfg: cfg}
}

// Fuse maps each smoothed signal into [0,1] with 1 meaning fully attentive,
// takes the weighted sum, applies the presence gate, and scales to [0,100].
//
// The returned value is deliberately unrounded: the threshold monitor needs
// the raw value to avoid tie-break flapping at band edges. Use DisplayScore
// for UI rendering.
func (f *Fuser) Fuse(s Signals) float64 {
	c := f.cfg
	p := clamp01(s.Presence)

	eyes := clamp01(s.EyeOpenness)
	gaze := 1 - math.Min(1, math.Max(0, s.GazeOffset)/c.GazeLimit)
	head := 1 - math.Min(1, math.Max(0, s.HeadDeviation)/c.HeadLimitDegrees)
	blink := f.blinkSignal(s.BlinkRate)

	w := c.Weights
	score := 100 * (w.Presence*p + w.Gaze*gaze + w.Eyes*eyes + w.Head*head + w.Blink*blink)

	// Presence gate: below the threshold the score scales down with
	// presence itself, reaching 0 when the face has been gone long enough
	// for the EMA to decay fully. Continuous at the threshold.
	if c.PresenceThreshold > 0 && p < c.PresenceThreshold {
		score *= p / c.PresenceThreshold
	}

	return math.Max(0, math.Min(100, score))
}

// blinkSignal maps a blink rate onto [0.7, 1]. A zero rate means no blink
// has been observed yet and is treated as neutral rather than abnormal.
func (f *Fuser) blinkSignal(rate float64) float64 {
	if rate <= 0 || f.cfg.BlinkSpan <= 0 {
		return 1
	}
	return 1 - math.Min(math.Abs(rate-f.cfg.BlinkCenter)/f.cfg.BlinkSpan, maxBlinkPenalty)
}

// DisplayScore rounds a focus score to the integer shown in UIs.
func DisplayScore(score float64) int {
	return int(math.Round(score))
}
