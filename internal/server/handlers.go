package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/dispatch"
	"github.com/focusmind/focustrack/internal/report"
	"github.com/focusmind/focustrack/internal/tracker"
)

// maxBodyBytes caps request bodies. Calibration batches are the largest
// payload and stay well under this.
const maxBodyBytes = 4 << 20

// handleHealth reports liveness plus the capture rate the frontend should
// run at.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"session_id":      s.pipeline.SessionID(),
		"capture_rate_hz": s.cfg.CaptureRateHz,
		"time":            time.Now().UTC().Format(time.RFC3339),
	})
}

// handleFrame processes one landmark frame and returns the updated score.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var frame tracker.FrameSample
	if !decodeBody(w, r, &frame) {
		return
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	result, err := s.pipeline.ProcessFrame(frame)
	if err != nil {
		if errors.Is(err, tracker.ErrCalibrating) {
			writeError(w, http.StatusConflict, "calibration in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.dispatchEvent(result)
	writeJSON(w, http.StatusOK, result)
}

// submitScoreRequest is the body for POST /api/score. Source identifies the
// out-of-process tracker for log correlation.
type submitScoreRequest struct {
	Score     float64    `json:"score"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Source    string     `json:"source,omitempty"`
}

// handleSubmitScore accepts an externally fused score.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	result, err := s.pipeline.SubmitScore(ts, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrCalibrating):
			writeError(w, http.StatusConflict, "calibration in progress")
		case errors.Is(err, tracker.ErrScoreOutOfRange):
			writeError(w, http.StatusBadRequest, "score must be a finite value in [0,100]")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if req.Source != "" {
		s.log.Debug().Str("source", req.Source).Float64("score", req.Score).Msg("external score")
	}
	s.dispatchEvent(result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	score := s.pipeline.Score()
	writeJSON(w, http.StatusOK, map[string]any{
		"score":      score,
		"display":    tracker.DisplayScore(score),
		"session_id": s.pipeline.SessionID(),
	})
}

// calibrateRequest carries the neutral-pose frames captured by the frontend.
type calibrateRequest struct {
	Frames []tracker.FrameSample `json:"frames"`
}

// handleCalibrate computes and installs a new calibration profile from a
// batch of neutral-pose frames. Scoring is rejected while this runs.
func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var req calibrateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !s.pipeline.BeginCalibration() {
		writeError(w, http.StatusConflict, "calibration already in progress")
		return
	}

	samples := make([]calibration.Measurement, 0, len(req.Frames))
	for _, f := range req.Frames {
		if m, ok := s.pipeline.Measure(f); ok {
			samples = append(samples, m)
		}
	}

	profile, err := calibration.Compute(samples, time.Now())
	if err != nil {
		s.pipeline.EndCalibration(nil)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := calibration.Save(s.cfg.ProfilePath, profile); err != nil {
		s.pipeline.EndCalibration(nil)
		s.log.Error().Err(err).Msg("saving calibration profile")
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	s.pipeline.EndCalibration(&profile)
	s.log.Info().Int("samples", len(samples)).Msg("calibration profile updated")
	writeJSON(w, http.StatusOK, profile)
}

// handleSession returns mid-session aggregates without closing the session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Snapshot())
}

// handleSessionReset closes the active session, persists it, and starts a
// fresh one. The closed summary is returned.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	sum, series, events := s.pipeline.CloseAndReset()

	if s.db != nil && sum.HasData {
		if err := s.db.SaveSession(sum, series, events); err != nil {
			s.log.Error().Err(err).Str("session_id", sum.SessionID).Msg("persisting session")
			writeError(w, http.StatusInternalServerError, "failed to persist session")
			return
		}
	}

	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}
	rows, err := s.db.ListSessions(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleSessionReport renders the HTML focus chart for a stored session.
func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	id := chi.URLParam(r, "id")
	row, err := s.db.GetSession(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	series, err := s.db.GetSeries(row.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	events, err := s.db.GetEvents(row.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Render(w, *row, series, events, s.cfg.Bands); err != nil {
		s.log.Error().Err(err).Str("session_id", row.ID).Msg("rendering report")
	}
}

// dispatchEvent forwards a freshly fired intervention to the dispatcher.
func (s *Server) dispatchEvent(result tracker.Result) {
	if result.Event == nil || s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(dispatch.Intervention{
		SessionID: result.SessionID,
		Event:     *result.Event,
	})
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
