// Package history records completed agent runs so earlier explanations can
// be listed and re-read.
package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"arxplain/internal/db"
)

// ErrNotFound is returned by GetRun for an unknown run id.
var ErrNotFound = errors.New("run not found")

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Run is one recorded agent run.
type Run struct {
	ID          string     `json:"id"`
	Term        string     `json:"term"`
	Status      string     `json:"status"`
	Explanation string     `json:"explanation,omitempty"`
	Error       string     `json:"error,omitempty"`
	EventCount  int        `json:"event_count"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

type Store struct {
	conn *sql.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{conn: database.Conn()}
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(ctx context.Context, term string) (string, error) {
	id := uuid.NewString()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, term, status, started_at) VALUES (?, ?, ?, ?)`,
		id, term, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun marks a run done and stores the final explanation text.
func (s *Store) FinishRun(ctx context.Context, id, explanation string, eventCount int) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, explanation = ?, event_count = ?, finished_at = ? WHERE id = ?`,
		StatusDone, explanation, eventCount, time.Now().UTC(), id,
	)
	return err
}

// FailRun marks a run failed with its error text.
func (s *Store) FailRun(ctx context.Context, id, errText string, eventCount int) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, event_count = ?, finished_at = ? WHERE id = ?`,
		StatusError, errText, eventCount, time.Now().UTC(), id,
	)
	return err
}

// ListRuns returns the most recent runs, newest first, without explanation
// bodies.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, term, status, error, event_count, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Term, &r.Status, &r.Error, &r.EventCount, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run including its explanation.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	var finished sql.NullTime
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, term, status, explanation, error, event_count, started_at, finished_at
		 FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.Term, &r.Status, &r.Explanation, &r.Error, &r.EventCount, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}
