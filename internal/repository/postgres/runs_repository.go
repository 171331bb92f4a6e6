package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stn-analytics/stn-dashboard/internal/domain"
)

// RunRepository tracks ingestion run lifecycle rows.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) StartRun(ctx context.Context, source string) (*domain.IngestionRun, error) {
	run := &domain.IngestionRun{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    domain.RunStarted,
		StartedAt: time.Now().UTC(),
	}
	query := `
		INSERT INTO ingestion_runs (id, source, status, started_at)
		VALUES (:id, :source, :status, :started_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

func (r *RunRepository) FinishRun(ctx context.Context, run *domain.IngestionRun, status domain.RunStatus, rows int, subject string, runErr error) error {
	now := time.Now().UTC()
	run.Status = status
	run.RowsWritten = rows
	run.Subject = subject
	run.CompletedAt = &now
	if runErr != nil {
		run.Error = runErr.Error()
	}
	query := `
		UPDATE ingestion_runs
		SET status = :status, rows_written = :rows_written, subject = :subject,
		    completed_at = :completed_at, error = :error
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRuns lists the latest runs for the operator view.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]domain.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []domain.IngestionRun
	query := `
		SELECT id, source, status, rows_written, subject, started_at, completed_at, error
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("select recent runs: %w", err)
	}
	return runs, nil
}
