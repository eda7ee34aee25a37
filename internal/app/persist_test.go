package app

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/tracker"
)

func testPipeline(t *testing.T) *tracker.Pipeline {
	t.Helper()
	cfg := tracker.Config{
		Alphas: tracker.Alphas{Presence: 1, EyeOpenness: 1, Gaze: 1, Head: 1, Blink: 1},
		Fuser: tracker.FuserConfig{
			Weights:           tracker.Weights{Presence: 0.30, Gaze: 0.25, Eyes: 0.20, Head: 0.15, Blink: 0.10},
			PresenceThreshold: 0.5,
			GazeLimit:         1,
			HeadLimitDegrees:  45,
			BlinkCenter:       20,
			BlinkSpan:         80,
		},
		Bands:    []float64{80, 60, 50, 40},
		Cooldown: 45 * time.Second,
	}
	return tracker.NewPipeline(cfg, calibration.DefaultProfile())
}

// The session must reach the store whenever persistSession runs, including
// the shutdown path where the server loop returned an error.
func TestPersistSession_WritesInFlightSession(t *testing.T) {
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pipe := testPipeline(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = pipe.SubmitScore(start, 90)
	require.NoError(t, err)
	_, err = pipe.SubmitScore(start.Add(10*time.Second), 70)
	require.NoError(t, err)

	sum, events := persistSession(db, pipe, zerolog.Nop())
	require.True(t, sum.HasData)
	assert.Len(t, events, 1)

	rows, err := db.ListSessions(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sum.SessionID, rows[0].ID)
	assert.Equal(t, 2, rows[0].SampleCount)

	// The pipeline starts a fresh session; persisting again stores nothing.
	_, _ = persistSession(db, pipe, zerolog.Nop())
	rows, err = db.ListSessions(10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
