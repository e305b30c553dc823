package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// storedTimeFormat sorts lexically in decided_at order.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z"

// Compile-time interface satisfaction check.
var _ driven.AuditStore = (*AttemptRepo)(nil)

// AttemptRepo is the SQLite implementation of the AuditStore port interface.
type AttemptRepo struct {
	db *DB
}

// NewAttemptRepo creates a new AttemptRepo backed by the given DB.
func NewAttemptRepo(db *DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// RecordAttempt appends one decided attempt.
func (r *AttemptRepo) RecordAttempt(ctx context.Context, rec model.AttemptRecord) error {
	const query = `INSERT INTO attempts (id, code, decision, reason, decided_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID, rec.Code, string(rec.Decision), rec.Reason, rec.DecidedAt.UTC().Format(storedTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("record attempt %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns up to limit attempts ordered by decided_at DESC.
func (r *AttemptRepo) ListRecent(ctx context.Context, limit int) ([]model.AttemptRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	const query = `SELECT id, code, decision, reason, decided_at FROM attempts
		ORDER BY decided_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var result []model.AttemptRecord
	for rows.Next() {
		var rec model.AttemptRecord
		var decision, decidedAt string
		if err := rows.Scan(&rec.ID, &rec.Code, &decision, &rec.Reason, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		rec.Decision = model.Decision(decision)
		rec.DecidedAt, err = parseTime(decidedAt)
		if err != nil {
			return nil, fmt.Errorf("parse decided_at for attempt %s: %w", rec.ID, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return result, nil
}

// parseTime attempts to parse a time string in common SQLite formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		storedTimeFormat,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
