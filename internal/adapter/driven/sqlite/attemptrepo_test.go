package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noisebridge/baron/internal/domain/model"
)

func makeAttempt(id, code string, decision model.Decision, reason string, at time.Time) model.AttemptRecord {
	return model.AttemptRecord{
		ID:        id,
		Code:      code,
		Decision:  decision,
		Reason:    reason,
		DecidedAt: at,
	}
}

func TestAttemptRepo_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	rec := makeAttempt("a1", "1234", model.DecisionGranted, model.ReasonAccepted, at)
	require.NoError(t, repo.RecordAttempt(ctx, rec))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "1234", got[0].Code)
	assert.Equal(t, model.DecisionGranted, got[0].Decision)
	assert.Equal(t, model.ReasonAccepted, got[0].Reason)
	assert.True(t, at.Equal(got[0].DecidedAt), "decided_at round trip: got %v", got[0].DecidedAt)
}

func TestAttemptRepo_ListRecent_NewestFirstAndLimited(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordAttempt(ctx, makeAttempt("a1", "1", model.DecisionDenied, model.ReasonUnknown, base)))
	require.NoError(t, repo.RecordAttempt(ctx, makeAttempt("a3", "3", model.DecisionGranted, model.ReasonAccepted, base.Add(2*time.Second))))
	require.NoError(t, repo.RecordAttempt(ctx, makeAttempt("a2", "2", model.DecisionGateFailed, model.ReasonGateError, base.Add(time.Second))))

	got, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a3", got[0].ID)
	assert.Equal(t, "a2", got[1].ID)
}

func TestAttemptRepo_ListRecent_SameInstantKeepsInsertOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordAttempt(ctx, makeAttempt("first", "1", model.DecisionDenied, model.ReasonUnknown, at)))
	require.NoError(t, repo.RecordAttempt(ctx, makeAttempt("second", "2", model.DecisionDenied, model.ReasonUnknown, at)))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].ID)
	assert.Equal(t, "first", got[1].ID)
}

func TestAttemptRepo_ListRecent_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepo(db)

	got, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttemptRepo_ListRecent_NonPositiveLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.RecordAttempt(ctx, makeAttempt("a1", "1", model.DecisionDenied, model.ReasonUnknown, time.Now())))

	got, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttemptRepo_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttemptRepo(db)
	ctx := context.Background()

	rec := makeAttempt("dup", "1", model.DecisionDenied, model.ReasonUnknown, time.Now())
	require.NoError(t, repo.RecordAttempt(ctx, rec))
	assert.Error(t, repo.RecordAttempt(ctx, rec))
}

func TestMigrateAttempts_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	version, err := MigrateAttempts(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMigrateAttempts_CreatesAttemptsTable(t *testing.T) {
	db := setupTestDB(t)

	var columns []string
	rows, err := db.Reader.Query(`SELECT name FROM pragma_table_info('attempts') ORDER BY cid`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id", "code", "decision", "reason", "decided_at"}, columns)

	var bookkeeping int
	require.NoError(t, db.Reader.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'attempt_schema_migrations'`,
	).Scan(&bookkeeping))
	assert.Equal(t, 1, bookkeeping)
}

func TestMigrateAttempts_DirtySchemaIsRefused(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Writer.Exec(`UPDATE attempt_schema_migrations SET dirty = 1`)
	require.NoError(t, err)

	version, err := MigrateAttempts(db.Writer)
	require.ErrorIs(t, err, ErrAttemptSchemaDirty)
	assert.Equal(t, uint(1), version)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01T12:00:00.500000000Z", time.Date(2026, 3, 1, 12, 0, 0, 500000000, time.UTC)},
		{"2026-03-01 12:00:00", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"2026-03-01T12:00:00Z", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %v", tt.in, got)
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}
