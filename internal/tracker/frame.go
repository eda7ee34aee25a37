// Package tracker implements the per-frame attention pipeline: extracting
// primitive signals from facial landmarks, smoothing them, and fusing them
// into a single focus score in [0,100].
package tracker

import "time"

// Point is a 2D landmark position in normalized image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GazeVector is the iris position inside the eye box, both components in
// [0,1] with (0.5, 0.5) meaning a centered iris.
type GazeVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FrameSample is one capture tick worth of landmark data. It is immutable
// after creation: the pipeline consumes it and keeps only derived values.
//
// Landmarks, EyeOpenness, and Gaze are alternative inputs: a full landmark
// vector lets the extractor derive openness and gaze itself; out-of-process
// detectors may instead send the derived raw signals directly.
type FrameSample struct {
	Timestamp time.Time `json:"timestamp"`
	Present   bool      `json:"present"`

	// Landmarks is the detector's full landmark vector, if available.
	Landmarks []Point `json:"landmarks,omitempty"`

	// EyeOpenness holds the raw per-eye aspect ratios (left, right) when
	// the detector computes them itself.
	EyeOpenness []float64 `json:"eye_openness,omitempty"`

	// Gaze is the pre-computed gaze vector, if the detector provides one.
	Gaze *GazeVector `json:"gaze,omitempty"`

	// Head-pose angles in degrees.
	HeadYaw   float64 `json:"head_yaw"`
	HeadPitch float64 `json:"head_pitch"`
}

// MediaPipe face-mesh landmark indices for the eye regions. The iris points
// require the refined-landmark model (478 points).
const (
	rightEyeOuter = 33
	rightEyeInner = 133
	rightEyeUpper = 159
	rightEyeLower = 145
	rightEyeIris  = 468

	leftEyeOuter = 362
	leftEyeInner = 263
	leftEyeUpper = 386
	leftEyeLower = 374
	leftEyeIris  = 473
)

// minLandmarks is the smallest landmark vector that still contains every
// index the extractor reads.
const minLandmarks = leftEyeIris + 1

// Signals is the primitive-signal tuple derived from one frame. The same
// type carries both raw (extractor output) and smoothed (EMA output) values.
type Signals struct {
	// Presence is 1 when a face was detected, 0 otherwise; smoothing turns
	// it into a fraction.
	Presence float64 `json:"presence"`

	// EyeOpenness is normalized against the calibrated neutral, in [0,1].
	EyeOpenness float64 `json:"eye_openness"`

	// GazeOffset is the distance from the calibrated neutral gaze in
	// profile scale units; 0 means dead-on.
	GazeOffset float64 `json:"gaze_offset"`

	// HeadDeviation is the angular distance from the calibrated resting
	// head pose, in degrees.
	HeadDeviation float64 `json:"head_deviation"`

	// BlinkRate is the running blink frequency in blinks per minute.
	BlinkRate float64 `json:"blink_rate"`
}
