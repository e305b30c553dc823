package driven

import (
	"context"

	"github.com/noisebridge/baron/internal/domain/model"
)

// AuditStore defines the driven port for the append-only attempt history.
type AuditStore interface {
	// RecordAttempt appends one decision to the history.
	RecordAttempt(ctx context.Context, rec model.AttemptRecord) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.AttemptRecord, error)
}
