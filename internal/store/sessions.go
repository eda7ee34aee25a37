// Package store provides SQLite persistence for closed tracking sessions,
// their score series, and the intervention events they produced.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/focusmind/focustrack/internal/session"
	"github.com/focusmind/focustrack/internal/threshold"
)

// SessionRow is a persisted session summary.
type SessionRow struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	Duration    float64   `json:"duration_seconds"`
	SampleCount int       `json:"sample_count"`
	Mean        float64   `json:"mean"`
	Median      float64   `json:"median"`
	StdDev      float64   `json:"std_dev"`
	Max         float64   `json:"max"`
	Min         float64   `json:"min"`
	First       float64   `json:"first"`
	Last        float64   `json:"last"`
	LargestDrop float64   `json:"largest_drop"`
	LargestGain float64   `json:"largest_gain"`
}

// SaveSession writes a closed session, its full score series, and its
// intervention events in a single transaction. Empty sessions (no samples)
// are skipped: there is nothing worth reporting on.
func (db *DB) SaveSession(sum session.Summary, series []session.Sample, events []threshold.Event) error {
	if !sum.HasData {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO sessions
		(id, started_at, ended_at, duration_secs, sample_count, mean_score, median_score,
		 stddev_score, max_score, min_score, first_score, last_score, largest_drop, largest_gain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.SessionID, fmtTime(sum.StartedAt), fmtTime(sum.EndedAt), sum.Duration,
		sum.SampleCount, sum.Mean, sum.Median, sum.StdDev, sum.Max, sum.Min,
		sum.First, sum.Last, sum.LargestDrop, sum.LargestGain,
	); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	sampleStmt, err := tx.Prepare("INSERT INTO samples (session_id, ts, score) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer sampleStmt.Close()

	for _, s := range series {
		if _, err := sampleStmt.Exec(sum.SessionID, fmtTime(s.Timestamp), s.Score); err != nil {
			return fmt.Errorf("inserting sample: %w", err)
		}
	}

	for _, ev := range events {
		if _, err := tx.Exec(
			"INSERT INTO events (session_id, ts, band, score) VALUES (?, ?, ?, ?)",
			sum.SessionID, fmtTime(ev.Timestamp), ev.Band, ev.Score,
		); err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
	}

	return tx.Commit()
}

// ListSessions returns up to limit sessions, newest first.
func (db *DB) ListSessions(limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(sessionSelect+" ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SessionRow
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSession returns a session by ID, accepting a unique prefix. It returns
// nil when no session matches and an error when the prefix is ambiguous.
func (db *DB) GetSession(idPrefix string) (*SessionRow, error) {
	rows, err := db.conn.Query(sessionSelect+" WHERE id LIKE ? LIMIT 2", idPrefix+"%")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []SessionRow
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("session id prefix %q is ambiguous", idPrefix)
	}
}

// LatestSession returns the most recently started session, or nil.
func (db *DB) LatestSession() (*SessionRow, error) {
	rows, err := db.conn.Query(sessionSelect + " ORDER BY started_at DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanSession(rows)
	if err != nil {
		return nil, err
	}
	return &r, rows.Err()
}

// GetSeries returns the stored score series for a session, oldest first.
func (db *DB) GetSeries(sessionID string) ([]session.Sample, error) {
	rows, err := db.conn.Query(
		"SELECT ts, score FROM samples WHERE session_id = ? ORDER BY id", sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []session.Sample
	for rows.Next() {
		var ts string
		var s session.Sample
		if err := rows.Scan(&ts, &s.Score); err != nil {
			return nil, err
		}
		s.Timestamp = parseTime(ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetEvents returns the intervention events for a session, oldest first.
func (db *DB) GetEvents(sessionID string) ([]threshold.Event, error) {
	rows, err := db.conn.Query(
		"SELECT ts, band, score FROM events WHERE session_id = ? ORDER BY id", sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []threshold.Event
	for rows.Next() {
		var ts string
		var ev threshold.Event
		if err := rows.Scan(&ts, &ev.Band, &ev.Score); err != nil {
			return nil, err
		}
		ev.Timestamp = parseTime(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

const sessionSelect = `SELECT id, started_at, ended_at, duration_secs, sample_count,
	mean_score, median_score, stddev_score, max_score, min_score,
	first_score, last_score, largest_drop, largest_gain FROM sessions`

func scanSession(rows *sql.Rows) (SessionRow, error) {
	var r SessionRow
	var started, ended string
	err := rows.Scan(&r.ID, &started, &ended, &r.Duration, &r.SampleCount,
		&r.Mean, &r.Median, &r.StdDev, &r.Max, &r.Min,
		&r.First, &r.Last, &r.LargestDrop, &r.LargestGain)
	if err != nil {
		return r, err
	}
	r.StartedAt = parseTime(started)
	r.EndedAt = parseTime(ended)
	return r, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
