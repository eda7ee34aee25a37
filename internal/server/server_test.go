package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusmind/focustrack/internal/calibration"
	"github.com/focusmind/focustrack/internal/config"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/tracker"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.ProfilePath = filepath.Join(t.TempDir(), "profile.json")

	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pipe := tracker.NewPipeline(cfg.Pipeline(), calibration.DefaultProfile())
	srv := New(cfg, pipe, db, nil, zerolog.Nop())
	return srv, srv.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func attentiveFrame(ts time.Time) map[string]any {
	return map[string]any{
		"timestamp":    ts.Format(time.RFC3339Nano),
		"present":      true,
		"eye_openness": []float64{0.28, 0.28},
		"gaze":         map[string]float64{"x": 0.5, "y": 0.5},
	}
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["session_id"])
}

func TestPostFrame(t *testing.T) {
	_, h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/frame", attentiveFrame(time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)

	var res tracker.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, 100, res.Display)
	assert.NotEmpty(t, res.SessionID)
	assert.Nil(t, res.Event)
}

func TestPostFrame_BadJSON(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/frame", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitScore_FiresEvent(t *testing.T) {
	_, h := newTestServer(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rec := doJSON(t, h, http.MethodPost, "/api/score", map[string]any{"score": 95, "timestamp": base})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/score", map[string]any{"score": 75, "timestamp": base.Add(time.Second)})
	require.Equal(t, http.StatusOK, rec.Code)

	var res tracker.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Event)
	assert.Equal(t, 80.0, res.Event.Band)
}

func TestSubmitScore_OutOfRange(t *testing.T) {
	_, h := newTestServer(t)

	for _, bad := range []float64{-1, 101} {
		rec := doJSON(t, h, http.MethodPost, "/api/score", map[string]any{"score": bad})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "score %v", bad)
	}
}

func TestGetScore(t *testing.T) {
	_, h := newTestServer(t)

	doJSON(t, h, http.MethodPost, "/api/score", map[string]any{"score": 64.2})
	rec := doJSON(t, h, http.MethodGet, "/api/score", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 64.2, body["score"])
	assert.Equal(t, 64.0, body["display"])
}

func TestSessionSnapshotAndReset(t *testing.T) {
	_, h := newTestServer(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Fresh session has no data.
	rec := doJSON(t, h, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, false, snap["has_data"])

	for i, score := range []float64{90, 80, 85} {
		doJSON(t, h, http.MethodPost, "/api/score", map[string]any{
			"score": score, "timestamp": base.Add(time.Duration(i) * time.Second),
		})
	}

	rec = doJSON(t, h, http.MethodPost, "/api/session/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, true, snap["has_data"])
	assert.Equal(t, 3.0, snap["sample_count"])
	closedID := snap["session_id"].(string)

	// The closed session was persisted and is listed.
	rec = doJSON(t, h, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []store.SessionRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, closedID, rows[0].ID)

	// And its report renders.
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/sessions/%s/report", closedID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestSessionReport_NotFound(t *testing.T) {
	_, h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/sessions/doesnotexist/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalibrate_TooFewFrames(t *testing.T) {
	_, h := newTestServer(t)

	frames := []map[string]any{attentiveFrame(time.Now())}
	rec := doJSON(t, h, http.MethodPost, "/api/calibrate", map[string]any{"frames": frames})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The failed run released the pipeline: scoring still works.
	rec = doJSON(t, h, http.MethodPost, "/api/frame", attentiveFrame(time.Now()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalibrate_Succeeds(t *testing.T) {
	srv, h := newTestServer(t)

	frames := make([]map[string]any, 0, 12)
	base := time.Now()
	for i := 0; i < 12; i++ {
		f := attentiveFrame(base.Add(time.Duration(i) * 100 * time.Millisecond))
		f["eye_openness"] = []float64{0.30, 0.30}
		frames = append(frames, f)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/calibrate", map[string]any{"frames": frames})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p calibration.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 0.30, p.NeutralOpenness)
	assert.Equal(t, 0.5, p.NeutralGazeX)

	// The profile landed on disk.
	saved, err := calibration.Load(srv.cfg.ProfilePath)
	require.NoError(t, err)
	assert.Equal(t, 0.30, saved.NeutralOpenness)
}
