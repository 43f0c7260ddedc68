package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codenexus/codenexus-engine/pkg/models"
)

// RefactorRepository defines the interface for refactor data access.
type RefactorRepository interface {
	CreateData(ctx context.Context, data *models.RefactoringData) error
	Create(ctx context.Context, refactor *models.Refactor) error
	ListByScan(ctx context.Context, scanID uuid.UUID) ([]*models.Refactor, error)
}

type refactorRepository struct{}

// NewRefactorRepository creates a new refactor repository.
func NewRefactorRepository() RefactorRepository {
	return &refactorRepository{}
}

var _ RefactorRepository = (*refactorRepository)(nil)

func (r *refactorRepository) CreateData(ctx context.Context, data *models.RefactoringData) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if data.ID == uuid.Nil {
		data.ID = uuid.New()
	}
	if data.Time.IsZero() {
		data.Time = time.Now()
	}
	if data.FilesAffected == nil {
		data.FilesAffected = []string{}
	}

	var deps []byte
	if len(data.RefactoredDependencies) > 0 {
		deps = data.RefactoredDependencies
	}

	err = q.QueryRow(ctx, `
		INSERT INTO refactoring_data (
			id, original_code, refactored_code, refactoring_type, files_affected,
			refactored_dependencies, cascading_refactor, ai_based, job_id,
			outdated, success, error, time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		data.ID, data.OriginalCode, data.RefactoredCode, data.RefactoringType, data.FilesAffected,
		deps, data.CascadingRefactor, data.AIBased, data.JobID,
		data.Outdated, data.Success, data.Error, data.Time,
	).Scan(&data.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refactoring data: %w", err)
	}
	return nil
}

func (r *refactorRepository) Create(ctx context.Context, refactor *models.Refactor) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if refactor.ID == uuid.Nil {
		refactor.ID = uuid.New()
	}

	err = q.QueryRow(ctx, `
		INSERT INTO refactors (id, scan_id, file_path, refactoring_data_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		refactor.ID, refactor.ScanID, refactor.FilePath, refactor.RefactoringDataID,
	).Scan(&refactor.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refactor: %w", err)
	}
	return nil
}

// ListByScan returns the scan's refactors with their refactoring data populated.
func (r *refactorRepository) ListByScan(ctx context.Context, scanID uuid.UUID) ([]*models.Refactor, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT r.id, r.scan_id, r.file_path, r.refactoring_data_id, r.created_at,
		       d.original_code, d.refactored_code, d.refactoring_type, d.files_affected,
		       d.refactored_dependencies, d.cascading_refactor, d.ai_based, d.job_id,
		       d.outdated, d.success, d.error, d.time, d.created_at
		FROM refactors r
		JOIN refactoring_data d ON d.id = r.refactoring_data_id
		WHERE r.scan_id = $1
		ORDER BY r.seq`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refactors: %w", err)
	}
	defer rows.Close()

	refactors := make([]*models.Refactor, 0)
	for rows.Next() {
		var ref models.Refactor
		var data models.RefactoringData
		var deps []byte
		err := rows.Scan(
			&ref.ID, &ref.ScanID, &ref.FilePath, &ref.RefactoringDataID, &ref.CreatedAt,
			&data.OriginalCode, &data.RefactoredCode, &data.RefactoringType, &data.FilesAffected,
			&deps, &data.CascadingRefactor, &data.AIBased, &data.JobID,
			&data.Outdated, &data.Success, &data.Error, &data.Time, &data.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refactor: %w", err)
		}
		data.ID = ref.RefactoringDataID
		data.RefactoredDependencies = deps
		ref.RefactoringData = &data
		refactors = append(refactors, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refactors: %w", err)
	}
	return refactors, nil
}
