// Package config provides configuration loading and defaults for focustrack.
package config

import "github.com/focusmind/focustrack/internal/tracker"

// DefaultConfigDir is the default location for focustrack configuration.
const DefaultConfigDir = "~/.config/focustrack"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "focustrack.db"

// DefaultProfileName is the filename for the calibration profile.
const DefaultProfileName = "profile.json"

// DefaultListenAddr is the default bind address for the HTTP API.
const DefaultListenAddr = "127.0.0.1:8450"

// DefaultCaptureRateHz is the expected frame rate of the landmark source.
const DefaultCaptureRateHz = 15.0

// DefaultPresenceThreshold is the smoothed-presence level below which the
// focus score saturates toward zero.
const DefaultPresenceThreshold = 0.5

// DefaultCooldownSeconds is the minimum gap between intervention events.
const DefaultCooldownSeconds = 45.0

// DefaultBands are the intervention trigger points, descending.
var DefaultBands = []float64{80, 60, 50, 40}

// DefaultAlphas are the per-signal EMA decay factors. Presence reacts fast
// so walking away registers within a few frames; gaze is slow because
// saccades and detector flicker should not drive interventions.
var DefaultAlphas = tracker.Alphas{
	Presence:    0.60,
	EyeOpenness: 0.35,
	Gaze:        0.25,
	Head:        0.30,
	Blink:       0.30,
}

// DefaultWeights are the fusion weights; they sum to 1.
var DefaultWeights = tracker.Weights{
	Presence: 0.30,
	Gaze:     0.25,
	Eyes:     0.20,
	Head:     0.15,
	Blink:    0.10,
}

// Default normalization limits for the fuser.
const (
	// DefaultGazeLimit is the gaze offset, in calibration scale units, at
	// which the gaze signal bottoms out.
	DefaultGazeLimit = 1.0

	// DefaultHeadLimitDegrees is the head deviation at which the head
	// signal bottoms out.
	DefaultHeadLimitDegrees = 45.0

	// DefaultBlinkCenter and DefaultBlinkSpan define the blink comfort
	// band in blinks per minute.
	DefaultBlinkCenter = 20.0
	DefaultBlinkSpan   = 80.0
)
