package calibstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gaze/internal/eyeball"
	"github.com/banshee-data/gaze/internal/geom"
)

// Eye names one of the two estimators.
type Eye string

const (
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

// Valid reports whether e is a known eye.
func (e Eye) Valid() bool {
	return e == EyeLeft || e == EyeRight
}

// Session groups the calibrations of one run.
type Session struct {
	SessionID   string `json:"session_id"`
	Label       string `json:"label,omitempty"`
	CreatedAtNs int64  `json:"created_at_ns"`
}

// Calibration is a snapshot of one eye's estimator.
type Calibration struct {
	CalibrationID   string         `json:"calibration_id"`
	SessionID       string         `json:"session_id"`
	Eye             Eye            `json:"eye"`
	Sphere          eyeball.Sphere `json:"sphere"`
	CenterDetected  bool           `json:"center_detected"`
	SearchCompleted bool           `json:"search_completed"`
	HistoryLen      *int           `json:"history_len,omitempty"`
	RecordedAtNs    int64          `json:"recorded_at_ns"`
}

// FromEstimator snapshots est for storage.
func FromEstimator(sessionID string, eye Eye, est *eyeball.Estimator, at time.Time) *Calibration {
	n := est.HistoryLen()
	return &Calibration{
		SessionID:       sessionID,
		Eye:             eye,
		Sphere:          est.Sphere(),
		CenterDetected:  est.CenterDetected(),
		SearchCompleted: est.SearchCompleted(),
		HistoryLen:      &n,
		RecordedAtNs:    at.UnixNano(),
	}
}

// CreateSession inserts a new session and returns it.
func (s *Store) CreateSession(label string, at time.Time) (*Session, error) {
	sess := &Session{
		SessionID:   uuid.New().String(),
		Label:       label,
		CreatedAtNs: at.UnixNano(),
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, label, created_at_ns) VALUES (?, ?, ?)`,
		sess.SessionID, nullString(sess.Label), sess.CreatedAtNs,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	var sess Session
	var label sql.NullString
	err := s.db.QueryRow(
		`SELECT session_id, label, created_at_ns FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&sess.SessionID, &label, &sess.CreatedAtNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.Label = label.String
	return &sess, nil
}

// LatestSession returns the most recently created session with the given
// label, or any label when label is empty.
func (s *Store) LatestSession(label string) (*Session, error) {
	query := `SELECT session_id, label, created_at_ns FROM sessions`
	var args []interface{}
	if label != "" {
		query += ` WHERE label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY created_at_ns DESC LIMIT 1`

	var sess Session
	var lbl sql.NullString
	err := s.db.QueryRow(query, args...).Scan(&sess.SessionID, &lbl, &sess.CreatedAtNs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session labelled %q: %w", label, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	sess.Label = lbl.String
	return &sess, nil
}

// SaveCalibration inserts c. If c.CalibrationID is empty, a new UUID is
// generated.
func (s *Store) SaveCalibration(c *Calibration) error {
	if !c.Eye.Valid() {
		return fmt.Errorf("save calibration: unknown eye %q", c.Eye)
	}
	if !geom.IsFinite(c.Sphere.Center) {
		return fmt.Errorf("save calibration: non-finite center %v", c.Sphere.Center)
	}
	if c.CalibrationID == "" {
		c.CalibrationID = uuid.New().String()
	}
	if c.RecordedAtNs == 0 {
		c.RecordedAtNs = time.Now().UnixNano()
	}

	query := `
		INSERT INTO calibrations (
			calibration_id, session_id, eye,
			center_x, center_y, center_z, radius, confidence,
			center_detected, search_completed, history_len, recorded_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		c.CalibrationID,
		c.SessionID,
		string(c.Eye),
		c.Sphere.Center.X,
		c.Sphere.Center.Y,
		c.Sphere.Center.Z,
		c.Sphere.Radius,
		c.Sphere.Confidence,
		c.CenterDetected,
		c.SearchCompleted,
		nullInt(c.HistoryLen),
		c.RecordedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	return nil
}

const calibrationColumns = `
	calibration_id, session_id, eye,
	center_x, center_y, center_z, radius, confidence,
	center_detected, search_completed, history_len, recorded_at_ns`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCalibration(row rowScanner) (*Calibration, error) {
	var c Calibration
	var eye string
	var historyLen sql.NullInt64
	err := row.Scan(
		&c.CalibrationID,
		&c.SessionID,
		&eye,
		&c.Sphere.Center.X,
		&c.Sphere.Center.Y,
		&c.Sphere.Center.Z,
		&c.Sphere.Radius,
		&c.Sphere.Confidence,
		&c.CenterDetected,
		&c.SearchCompleted,
		&historyLen,
		&c.RecordedAtNs,
	)
	if err != nil {
		return nil, err
	}
	c.Eye = Eye(eye)
	if historyLen.Valid {
		n := int(historyLen.Int64)
		c.HistoryLen = &n
	}
	return &c, nil
}

// LatestCalibration returns the most recent calibration of eye in a session.
func (s *Store) LatestCalibration(sessionID string, eye Eye) (*Calibration, error) {
	row := s.db.QueryRow(`SELECT `+calibrationColumns+`
		FROM calibrations
		WHERE session_id = ? AND eye = ?
		ORDER BY recorded_at_ns DESC
		LIMIT 1`, sessionID, string(eye))

	c, err := scanCalibration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calibration %s/%s: %w", sessionID, eye, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get calibration: %w", err)
	}
	return c, nil
}

// ListCalibrations returns every calibration of a session, oldest first.
func (s *Store) ListCalibrations(sessionID string) ([]*Calibration, error) {
	rows, err := s.db.Query(`SELECT `+calibrationColumns+`
		FROM calibrations
		WHERE session_id = ?
		ORDER BY recorded_at_ns ASC, eye ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list calibrations: %w", err)
	}
	defer rows.Close()

	var out []*Calibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
