package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"lambda-events/pkg/lambda"
)

// ErrNotFound is returned when no invocation has the requested ID.
var ErrNotFound = errors.New("invocation not found")

// Entry is one recorded invocation.
type Entry struct {
	ID           int64           `json:"id"`
	RequestID    string          `json:"requestId"`
	FunctionName string          `json:"functionName"`
	EventSource  string          `json:"eventSource"`
	CompletedBy  string          `json:"completedBy"`
	Error        string          `json:"error,omitempty"`
	Event        json.RawMessage `json:"event,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	DurationMS   float64         `json:"durationMs"`
	RemainingMS  int64           `json:"remainingMs"`
	RecordedAt   time.Time       `json:"recordedAt"`
}

// Succeeded reports whether the invocation completed without an error.
func (e Entry) Succeeded() bool {
	return e.Error == ""
}

// Journal stores invocation history in SQLite.
type Journal struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// Open opens or creates the journal database file at path and migrates it.
func Open(path string, logger logrus.FieldLogger) (*Journal, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	if err := migrateUp(path, logger); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	logger.WithField("path", path).Info("Invocation journal opened")
	return &Journal{db: db, logger: logger}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e. RecordedAt defaults to now.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO invocations (request_id, function_name, event_source, completed_by, error, event, result, duration_ms, remaining_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.FunctionName, e.EventSource, e.CompletedBy,
		nullString(e.Error), nullString(string(e.Event)), nullString(string(e.Result)),
		e.DurationMS, e.RemainingMS, e.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record invocation %s: %w", e.RequestID, err)
	}
	return nil
}

// Get returns the invocation with the given request ID.
func (j *Journal) Get(ctx context.Context, requestID string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntries+` WHERE request_id = ?`, requestID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invocation %s: %w", requestID, err)
	}
	return e, nil
}

// Recent returns up to limit invocations, newest first. A non-empty function
// restricts the result to that function.
func (j *Journal) Recent(ctx context.Context, function string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := selectEntries
	args := []any{}
	if function != "" {
		query += ` WHERE function_name = ?`
		args = append(args, function)
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Observer records each completed invocation under eventSource. Recording
// failures are logged, never returned to the invocation.
func (j *Journal) Observer(eventSource string, event any) lambda.Observer {
	var raw json.RawMessage
	if event != nil {
		raw, _ = json.Marshal(event)
	}

	return func(lc *lambda.Context, report lambda.Report) {
		e := Entry{
			RequestID:    report.RequestID,
			FunctionName: report.FunctionName,
			EventSource:  eventSource,
			CompletedBy:  string(report.Source),
			Event:        raw,
			DurationMS:   float64(report.Duration.Nanoseconds()) / 1000000,
			RemainingMS:  report.Remaining.Milliseconds(),
		}
		if report.Err != nil {
			e.Error = report.Err.Error()
		} else if report.Result != nil {
			if out, err := json.Marshal(report.Result); err == nil {
				e.Result = out
			}
		}

		if err := j.Record(context.Background(), e); err != nil {
			j.logger.WithError(err).WithField("request_id", report.RequestID).Warn("Failed to journal invocation")
		}
	}
}

const selectEntries = `SELECT id, request_id, function_name, event_source, completed_by, error, event, result, duration_ms, remaining_ms, recorded_at FROM invocations`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                   Entry
		errText, event, res sql.NullString
	)
	if err := s.Scan(&e.ID, &e.RequestID, &e.FunctionName, &e.EventSource, &e.CompletedBy,
		&errText, &event, &res, &e.DurationMS, &e.RemainingMS, &e.RecordedAt); err != nil {
		return nil, err
	}
	e.Error = errText.String
	if event.Valid {
		e.Event = json.RawMessage(event.String)
	}
	if res.Valid {
		e.Result = json.RawMessage(res.String)
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
