package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/models"
)

// PostgresSyncLogRepository implements SyncLogRepository for PostgreSQL
type PostgresSyncLogRepository struct {
	db *database.DB
}

// NewPostgresSyncLogRepository creates a new sync log repository
func NewPostgresSyncLogRepository(db *database.DB) SyncLogRepository {
	return &PostgresSyncLogRepository{db: db}
}

// Create inserts a new IN_PROGRESS entry
func (r *PostgresSyncLogRepository) Create(ctx context.Context, source models.SyncSource, start time.Time) (*models.SyncLog, error) {
	entry := &models.SyncLog{
		ID:        uuid.New(),
		Status:    models.SyncStatusInProgress,
		Source:    source,
		StartTime: start,
	}

	query := `
		INSERT INTO sync_logs (id, status, source, start_time, count)
		VALUES ($1, $2, $3, $4, 0)
	`

	if _, err := r.db.Querier().Exec(ctx, query, entry.ID, entry.Status, entry.Source, entry.StartTime); err != nil {
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}

	return entry, nil
}

// Finalize sets the terminal status exactly once
func (r *PostgresSyncLogRepository) Finalize(ctx context.Context, id uuid.UUID, status models.SyncStatus, count int, errMsg *string, end time.Time) error {
	query := `
		UPDATE sync_logs
		SET status = $2, end_time = $3, count = $4, error = $5
		WHERE id = $1 AND status = $6
	`

	tag, err := r.db.Querier().Exec(ctx, query, id, status, end, count, errMsg, models.SyncStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to finalize sync log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sync log %s: %w", id, ErrSyncLogFinalized)
	}

	return nil
}

// ListRecent returns the newest entries first
func (r *PostgresSyncLogRepository) ListRecent(ctx context.Context, limit int) ([]models.SyncLog, error) {
	query := `
		SELECT id, status, source, start_time, end_time, count, error
		FROM sync_logs
		ORDER BY start_time DESC
		LIMIT $1
	`

	rows, err := r.db.Querier().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var logs []models.SyncLog
	for rows.Next() {
		var l models.SyncLog
		if err := rows.Scan(&l.ID, &l.Status, &l.Source, &l.StartTime, &l.EndTime, &l.Count, &l.Error); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
