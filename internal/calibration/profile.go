// Package calibration manages per-user baseline profiles used to normalize
// raw gaze and head-pose measurements into user-relative units.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Profile holds the per-user neutral baselines captured by a calibration run.
// Baselines are read-only outside this package; a new calibration run
// replaces the profile wholesale.
type Profile struct {
	// NeutralGazeX/Y is the iris position inside the eye box when the user
	// looks straight at the screen, both components in [0,1].
	NeutralGazeX float64 `json:"neutral_gaze_x"`
	NeutralGazeY float64 `json:"neutral_gaze_y"`

	// GazeScale converts raw gaze distance into normalized offset units.
	// An offset equal to GazeScale means "at the edge of comfortable gaze".
	GazeScale float64 `json:"gaze_scale"`

	// NeutralOpenness is the user's relaxed eye-aspect ratio. Raw openness
	// is divided by this value so 1.0 means "eyes as open as usual".
	NeutralOpenness float64 `json:"neutral_openness"`

	// NeutralYaw and NeutralPitch are the resting head-pose angles in degrees.
	NeutralYaw   float64 `json:"neutral_yaw"`
	NeutralPitch float64 `json:"neutral_pitch"`

	// CalibratedAt records when this profile was captured. Zero for the
	// built-in defaults.
	CalibratedAt time.Time `json:"calibrated_at,omitzero"`
}

// Plausibility bounds for calibration results. Values outside these ranges
// indicate a bad capture (user moved, detector glitched) and the run is
// rejected rather than persisted.
const (
	minNeutralGaze     = 0.20
	maxNeutralGaze     = 0.80
	minGazeScale       = 0.05
	maxGazeScale       = 1.00
	minNeutralOpenness = 0.10
	maxNeutralOpenness = 0.60
	maxNeutralAngle    = 30.0 // degrees, yaw and pitch
)

// DefaultProfile returns the generic baseline used when no calibration has
// been run. The values work reasonably for a centered face at typical
// webcam distance.
func DefaultProfile() Profile {
	return Profile{
		NeutralGazeX:    0.5,
		NeutralGazeY:    0.5,
		GazeScale:       0.35,
		NeutralOpenness: 0.28,
		NeutralYaw:      0,
		NeutralPitch:    0,
	}
}

// Validate checks that all baseline values fall within physiologically
// plausible ranges.
func (p Profile) Validate() error {
	if p.NeutralGazeX < minNeutralGaze || p.NeutralGazeX > maxNeutralGaze {
		return fmt.Errorf("neutral gaze x %.3f outside [%.2f, %.2f]", p.NeutralGazeX, minNeutralGaze, maxNeutralGaze)
	}
	if p.NeutralGazeY < minNeutralGaze || p.NeutralGazeY > maxNeutralGaze {
		return fmt.Errorf("neutral gaze y %.3f outside [%.2f, %.2f]", p.NeutralGazeY, minNeutralGaze, maxNeutralGaze)
	}
	if p.GazeScale < minGazeScale || p.GazeScale > maxGazeScale {
		return fmt.Errorf("gaze scale %.3f outside [%.2f, %.2f]", p.GazeScale, minGazeScale, maxGazeScale)
	}
	if p.NeutralOpenness < minNeutralOpenness || p.NeutralOpenness > maxNeutralOpenness {
		return fmt.Errorf("neutral openness %.3f outside [%.2f, %.2f]", p.NeutralOpenness, minNeutralOpenness, maxNeutralOpenness)
	}
	if p.NeutralYaw < -maxNeutralAngle || p.NeutralYaw > maxNeutralAngle {
		return fmt.Errorf("neutral yaw %.1f exceeds +/-%.0f degrees", p.NeutralYaw, maxNeutralAngle)
	}
	if p.NeutralPitch < -maxNeutralAngle || p.NeutralPitch > maxNeutralAngle {
		return fmt.Errorf("neutral pitch %.1f exceeds +/-%.0f degrees", p.NeutralPitch, maxNeutralAngle)
	}
	return nil
}

// Load reads a profile from the given path. A missing file is not an error:
// the built-in defaults are returned so a session can always start.
// A present-but-invalid file is an error, since silently discarding a
// corrupt calibration would be surprising.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfile(), nil
		}
		return DefaultProfile(), fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultProfile(), fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return DefaultProfile(), fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Save writes the profile to path atomically: the JSON is written to a
// temporary file in the same directory and renamed into place, so a failed
// write never leaves a partial profile behind.
func Save(path string, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating profile dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".profile-*.json")
	if err != nil {
		return fmt.Errorf("creating temp profile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing profile: %w", err)
	}
	return nil
}
