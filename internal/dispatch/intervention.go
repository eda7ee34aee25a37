// Package dispatch delivers intervention events to the user: desktop
// notifications, an optional webhook, and structured logs.
package dispatch

import (
	"fmt"

	"github.com/focusmind/focustrack/internal/threshold"
)

// Intervention is a threshold crossing bound to the session it occurred in.
type Intervention struct {
	SessionID string          `json:"session_id"`
	Event     threshold.Event `json:"event"`
}

// Title returns a short headline for the intervention.
func (iv Intervention) Title() string {
	switch {
	case iv.Event.Band >= 80:
		return "Focus drifting"
	case iv.Event.Band >= 60:
		return "Focus slipping"
	case iv.Event.Band >= 50:
		return "Focus low"
	default:
		return "Focus lost"
	}
}

// Message returns the notification body.
func (iv Intervention) Message() string {
	return fmt.Sprintf("Focus score dropped below %.0f (now %.0f). Time to reset.",
		iv.Event.Band, iv.Event.Score)
}
