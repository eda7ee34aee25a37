// Package session accumulates the focus-score time series for the active
// tracking session and produces summary statistics on demand.
package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Sample is one scored frame in the session series.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}

// Summary is the aggregate view of a session series. HasData is false for a
// session with no samples; all numeric fields are zero in that case rather
// than NaN, so callers never hit empty-set arithmetic.
type Summary struct {
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	EndedAt     time.Time `json:"ended_at,omitzero"`
	Duration    float64   `json:"duration_seconds"`
	SampleCount int       `json:"sample_count"`
	HasData     bool      `json:"has_data"`

	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	First  float64 `json:"first"`
	Last   float64 `json:"last"`

	// Largest single-frame moves, useful for spotting dropout spikes.
	LargestDrop float64 `json:"largest_drop"`
	LargestGain float64 `json:"largest_gain"`
}

// Aggregator owns the score series for one session at a time. It is not
// safe for concurrent use; the pipeline serializes access.
type Aggregator struct {
	id      string
	samples []Sample
}

// NewAggregator starts a fresh session with a new ID.
func NewAggregator() *Aggregator {
	return &Aggregator{id: uuid.NewString()}
}

// SessionID returns the current session's ID.
func (a *Aggregator) SessionID() string {
	return a.id
}

// Append records one scored frame. O(1) amortized.
func (a *Aggregator) Append(ts time.Time, score float64) {
	a.samples = append(a.samples, Sample{Timestamp: ts, Score: score})
}

// Len returns the number of samples in the current session.
func (a *Aggregator) Len() int {
	return len(a.samples)
}

// Series returns a copy of the current series, oldest first.
func (a *Aggregator) Series() []Sample {
	out := make([]Sample, len(a.samples))
	copy(out, a.samples)
	return out
}

// Snapshot computes aggregates over the buffered series without closing the
// session. Safe to call mid-session.
func (a *Aggregator) Snapshot() Summary {
	return summarize(a.id, a.samples)
}

// CloseAndReset finalizes the session: it returns the summary and the frozen
// series, then clears the buffer and assigns a fresh session ID so the next
// Append starts a brand-new session.
func (a *Aggregator) CloseAndReset() (Summary, []Sample) {
	sum := summarize(a.id, a.samples)
	series := a.samples

	a.samples = nil
	a.id = uuid.NewString()
	return sum, series
}

func summarize(id string, samples []Sample) Summary {
	sum := Summary{SessionID: id, SampleCount: len(samples)}
	if len(samples) == 0 {
		return sum
	}
	sum.HasData = true
	sum.StartedAt = samples[0].Timestamp
	sum.EndedAt = samples[len(samples)-1].Timestamp
	sum.Duration = sum.EndedAt.Sub(sum.StartedAt).Seconds()
	sum.First = samples[0].Score
	sum.Last = samples[len(samples)-1].Score

	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = s.Score
	}

	sum.Mean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		sum.StdDev = stat.StdDev(scores, nil)
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	sum.Min = sorted[0]
	sum.Max = sorted[len(sorted)-1]
	sum.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	for i := 1; i < len(scores); i++ {
		delta := scores[i] - scores[i-1]
		if delta < sum.LargestDrop {
			sum.LargestDrop = delta
		}
		if delta > sum.LargestGain {
			sum.LargestGain = delta
		}
	}
	return sum
}
