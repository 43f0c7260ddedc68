package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/models"
)

// FileDataRepository defines the interface for stored project file access.
type FileDataRepository interface {
	Upsert(ctx context.Context, file *models.ProjectFileData) error
	Get(ctx context.Context, projectID uuid.UUID, fileName string) (*models.ProjectFileData, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectFileData, error)
	Delete(ctx context.Context, projectID uuid.UUID, fileName string) error
}

type fileDataRepository struct{}

// NewFileDataRepository creates a new file data repository.
func NewFileDataRepository() FileDataRepository {
	return &fileDataRepository{}
}

var _ FileDataRepository = (*fileDataRepository)(nil)

func (r *fileDataRepository) Upsert(ctx context.Context, file *models.ProjectFileData) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	var ast []byte
	if len(file.AST) > 0 {
		ast = file.AST
	}

	err = q.QueryRow(ctx, `
		INSERT INTO project_file_data (project_id, file_name, code, ast)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, file_name) DO UPDATE
		SET code = EXCLUDED.code,
		    ast = EXCLUDED.ast,
		    updated_at = now()
		RETURNING updated_at`,
		file.ProjectID, file.FileName, file.Code, ast,
	).Scan(&file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert file data: %w", err)
	}
	return nil
}

func (r *fileDataRepository) Get(ctx context.Context, projectID uuid.UUID, fileName string) (*models.ProjectFileData, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	var f models.ProjectFileData
	var ast []byte
	err = q.QueryRow(ctx, `
		SELECT project_id, file_name, code, ast, updated_at
		FROM project_file_data
		WHERE project_id = $1 AND file_name = $2`, projectID, fileName,
	).Scan(&f.ProjectID, &f.FileName, &f.Code, &ast, &f.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get file data")
	}
	f.AST = ast
	return &f, nil
}

func (r *fileDataRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectFileData, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT project_id, file_name, code, ast, updated_at
		FROM project_file_data
		WHERE project_id = $1
		ORDER BY file_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file data: %w", err)
	}
	defer rows.Close()

	files := make([]*models.ProjectFileData, 0)
	for rows.Next() {
		var f models.ProjectFileData
		var ast []byte
		if err := rows.Scan(&f.ProjectID, &f.FileName, &f.Code, &ast, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file data: %w", err)
		}
		f.AST = ast
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file data: %w", err)
	}
	return files, nil
}

func (r *fileDataRepository) Delete(ctx context.Context, projectID uuid.UUID, fileName string) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `DELETE FROM project_file_data WHERE project_id = $1 AND file_name = $2`, projectID, fileName)
	if err != nil {
		return fmt.Errorf("failed to delete file data: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
