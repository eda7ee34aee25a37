package app

import (
	"github.com/rs/zerolog"

	"github.com/focusmind/focustrack/internal/session"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/threshold"
	"github.com/focusmind/focustrack/internal/tracker"
)

// persistSession closes the active session and writes it to the store. It
// runs on every shutdown path, clean or not, so an interrupted or crashed
// run never loses its samples. The summary and events are returned for
// display.
func persistSession(db *store.DB, pipe *tracker.Pipeline, log zerolog.Logger) (session.Summary, []threshold.Event) {
	sum, series, events := pipe.CloseAndReset()
	if err := db.SaveSession(sum, series, events); err != nil {
		log.Error().Err(err).Str("session_id", sum.SessionID).Msg("persisting session")
	}
	return sum, events
}
