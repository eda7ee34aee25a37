package tracker

// EMA is a single exponential-moving-average accumulator. The first sample
// seeds the state directly, so there is no warm-up transient.
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

// NewEMA creates an accumulator with the given decay factor. Alpha is
// clamped into (0,1]; 1 disables smoothing entirely.
func NewEMA(alpha float64) EMA {
	if alpha <= 0 {
		alpha = 0.01
	}
	if alpha > 1 {
		alpha = 1
	}
	return EMA{alpha: alpha}
}

// Update folds one sample into the state and returns the new filtered value.
func (e *EMA) Update(v float64) float64 {
	if !e.seeded {
		e.value = v
		e.seeded = true
		return v
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current filtered value (0 before the first sample).
func (e *EMA) Value() float64 {
	return e.value
}

// Reset clears the state; the next Update seeds it again.
func (e *EMA) Reset() {
	e.value = 0
	e.seeded = false
}

// Alphas configures the per-signal decay factors. Presence typically uses a
// fast alpha so walking away registers quickly; gaze uses a slow one so
// saccades and detector flicker do not drive spurious interventions.
type Alphas struct {
	Presence    float64 `mapstructure:"presence"`
	EyeOpenness float64 `mapstructure:"eye_openness"`
	Gaze        float64 `mapstructure:"gaze"`
	Head        float64 `mapstructure:"head"`
	Blink       float64 `mapstructure:"blink"`
}

// Smoother holds one EMA per primitive signal. Memory use is O(1) per
// signal regardless of session length.
type Smoother struct {
	presence EMA
	eyes     EMA
	gaze     EMA
	head     EMA
	blink    EMA
}

// NewSmoother creates a smoother with the given per-signal alphas.
func NewSmoother(a Alphas) *Smoother {
	return &Smoother{
		presence: NewEMA(a.Presence),
		eyes:     NewEMA(a.EyeOpenness),
		gaze:     NewEMA(a.Gaze),
		head:     NewEMA(a.Head),
		blink:    NewEMA(a.Blink),
	}
}

// Update folds one raw signal tuple into the filters and returns the
// smoothed tuple.
func (s *Smoother) Update(raw Signals) Signals {
	return Signals{
		Presence:      s.presence.Update(raw.Presence),
		EyeOpenness:   s.eyes.Update(raw.EyeOpenness),
		GazeOffset:    s.gaze.Update(raw.GazeOffset),
		HeadDeviation: s.head.Update(raw.HeadDeviation),
		BlinkRate:     s.blink.Update(raw.BlinkRate),
	}
}

// Reset clears all filter state at a session boundary.
func (s *Smoother) Reset() {
	s.presence.Reset()
	s.eyes.Reset()
	s.gaze.Reset()
	s.head.Reset()
	s.blink.Reset()
}
