package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/models"
)

// ActivityLogRepository defines the interface for activity log data access.
// Entries are append-only apart from operator deletes.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ActivityLog, error)
	ListAll(ctx context.Context) ([]*models.ActivityLog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type activityLogRepository struct{}

// NewActivityLogRepository creates a new activity log repository.
func NewActivityLogRepository() ActivityLogRepository {
	return &activityLogRepository{}
}

var _ ActivityLogRepository = (*activityLogRepository)(nil)

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	err = q.QueryRow(ctx, `
		INSERT INTO activity_logs (id, project_id, type, message, object_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		entry.ID, entry.ProjectID, entry.Type, entry.Message, entry.ObjectID,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

func (r *activityLogRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ActivityLog, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, project_id, type, message, object_id, created_at
		FROM activity_logs
		WHERE project_id = $1
		ORDER BY created_at DESC, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return collectActivityLogs(rows)
}

func (r *activityLogRepository) ListAll(ctx context.Context) ([]*models.ActivityLog, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, project_id, type, message, object_id, created_at
		FROM activity_logs
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	return collectActivityLogs(rows)
}

func (r *activityLogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `DELETE FROM activity_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func collectActivityLogs(rows pgx.Rows) ([]*models.ActivityLog, error) {
	defer rows.Close()

	logs := make([]*models.ActivityLog, 0)
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Type, &l.Message, &l.ObjectID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity logs: %w", err)
	}
	return logs, nil
}
