// Package threshold watches the focus-score stream and emits intervention
// events when the score decays through configured bands. A band latch plus a
// cooldown window together prevent event storms while the score oscillates
// around a boundary.
package threshold

import (
	"math"
	"sort"
	"time"
)

// State is the monitor's coarse state.
type State int

const (
	// StateNormal means the monitor is armed and may emit on the next
	// downward band crossing.
	StateNormal State = iota

	// StateCooldown means an event fired recently; crossings are still
	// latched but no event is emitted until the window elapses.
	StateCooldown
)

// String returns the state name.
func (s State) String() string {
	if s == StateCooldown {
		return "cooldown"
	}
	return "normal"
}

// Event is an intervention trigger: the focus score crossed downward through
// a band that had not yet fired during the current descent.
type Event struct {
	Band      float64   `json:"threshold"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Monitor tracks downward band crossings of a score stream.
//
// Time is taken exclusively from the timestamps carried on observations,
// never from the wall clock, so behavior is fully deterministic under
// synthetic input.
type Monitor struct {
	bands    []float64 // descending
	cooldown time.Duration

	state         State
	cooldownUntil time.Time
	latched       map[float64]bool
	prev          float64
	seeded        bool
}

// NewMonitor creates a monitor for the given bands and cooldown window.
// Bands are sorted descending regardless of input order; duplicates are kept
// harmlessly (a duplicate band latches on the same crossing).
func NewMonitor(bands []float64, cooldown time.Duration) *Monitor {
	sorted := make([]float64, len(bands))
	copy(sorted, bands)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return &Monitor{
		bands:    sorted,
		cooldown: cooldown,
		latched:  make(map[float64]bool, len(sorted)),
	}
}

// State returns the current monitor state.
func (m *Monitor) State() State {
	return m.state
}

// Observe feeds one scored frame into the monitor and returns an event if a
// fresh downward crossing fired, or nil.
//
// Non-finite or out-of-range scores are skipped entirely: the latch state,
// cooldown clock, and previous-score reference all stay untouched.
func (m *Monitor) Observe(ts time.Time, score float64) *Event {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 100 {
		return nil
	}

	if !m.seeded {
		m.prev = score
		m.seeded = true
		return nil
	}

	if m.state == StateCooldown && !ts.Before(m.cooldownUntil) {
		m.state = StateNormal
	}

	// Re-arm: recovery above the highest band clears every latch so a later
	// descent can trigger the full ladder again.
	if len(m.bands) > 0 && score > m.bands[0] {
		for b := range m.latched {
			delete(m.latched, b)
		}
	}

	// Latch every band crossed downward this frame; the event (if armed)
	// reports the deepest one, since that is where the score now sits.
	var fired *Event
	for _, band := range m.bands {
		if m.prev >= band && score < band && !m.latched[band] {
			m.latched[band] = true
			if m.state == StateNormal {
				fired = &Event{Band: band, Score: score, Timestamp: ts}
			}
		}
	}

	if fired != nil {
		m.state = StateCooldown
		m.cooldownUntil = ts.Add(m.cooldown)
	}

	m.prev = score
	return fired
}

// Reset returns the monitor to its initial state: no latches, no cooldown,
// no previous score. Called at session boundaries.
func (m *Monitor) Reset() {
	m.state = StateNormal
	m.cooldownUntil = time.Time{}
	m.latched = make(map[float64]bool, len(m.bands))
	m.prev = 0
	m.seeded = false
}
