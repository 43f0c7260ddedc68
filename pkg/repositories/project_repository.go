package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// GetByTitle returns the oldest project with the given title and the
	// number of projects sharing it.
	GetByTitle(ctx context.Context, title string) (*models.Project, int, error)
	List(ctx context.Context) ([]*models.Project, error)
	// LockForUpdate takes a row lock on the project for the rest of the transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) error

	ListFiles(ctx context.Context, id uuid.UUID) ([]string, error)
	AddFile(ctx context.Context, id uuid.UUID, fileName string) error
	RemoveFile(ctx context.Context, id uuid.UUID, fileName string) error

	AddMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

var _ ProjectRepository = (*projectRepository)(nil)

const projectColumns = `id, title, description, owner_id, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err = q.Exec(ctx, `
		INSERT INTO projects (id, title, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		project.ID, project.Title, project.Description, project.OwnerID, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	if project.OwnerID != nil {
		if _, err := q.Exec(ctx, `
			INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, project.ID, *project.OwnerID); err != nil {
			return fmt.Errorf("failed to add project owner: %w", err)
		}
	}

	members, err := r.listMembers(ctx, project.ID)
	if err != nil {
		return err
	}
	project.MemberIDs = members
	project.Files = []string{}
	project.ScanIDs = []uuid.UUID{}
	return nil
}

// Get retrieves a project with its members, files and scan IDs.
func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	project, err := scanProject(q.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get project")
	}

	if err := r.loadChildren(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *projectRepository) GetByTitle(ctx context.Context, title string) (*models.Project, int, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, 0, err
	}

	var p models.Project
	var matches int
	err = q.QueryRow(ctx, `
		SELECT `+projectColumns+`, COUNT(*) OVER ()
		FROM projects
		WHERE title = $1
		ORDER BY created_at, id
		LIMIT 1`, title).Scan(
		&p.ID, &p.Title, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt, &matches)
	if err != nil {
		return nil, 0, notFound(err, "get project by title")
	}

	if err := r.loadChildren(ctx, &p); err != nil {
		return nil, 0, err
	}
	return &p, matches, nil
}

// List returns all projects in creation order, without child collections.
func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

func (r *projectRepository) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	var locked uuid.UUID
	err = q.QueryRow(ctx, `SELECT id FROM projects WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return notFound(err, "lock project")
	}
	return nil
}

func (r *projectRepository) ListFiles(ctx context.Context, id uuid.UUID) ([]string, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT file_name FROM project_files WHERE project_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list project files: %w", err)
	}
	files, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list project files: %w", err)
	}
	return files, nil
}

// AddFile appends a file name to the project's file list. Existing names are left in place.
func (r *projectRepository) AddFile(ctx context.Context, id uuid.UUID, fileName string) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO project_files (project_id, file_name) VALUES ($1, $2)
		ON CONFLICT (project_id, file_name) DO NOTHING`, id, fileName)
	if err != nil {
		return fmt.Errorf("failed to add project file: %w", err)
	}
	return nil
}

func (r *projectRepository) RemoveFile(ctx context.Context, id uuid.UUID, fileName string) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `DELETE FROM project_files WHERE project_id = $1 AND file_name = $2`, id, fileName)
	if err != nil {
		return fmt.Errorf("failed to remove project file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AddMember returns apperrors.ErrConflict when the user is already a member.
func (r *projectRepository) AddMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *projectRepository) RemoveMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to remove project member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) listMembers(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}
	members, err := collectIDs(ctx, q,
		`SELECT user_id FROM project_members WHERE project_id = $1 ORDER BY added_at, user_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return members, nil
}

// loadChildren fills the derived member, file and scan lists.
func (r *projectRepository) loadChildren(ctx context.Context, p *models.Project) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if p.MemberIDs, err = r.listMembers(ctx, p.ID); err != nil {
		return err
	}
	if p.Files, err = r.ListFiles(ctx, p.ID); err != nil {
		return err
	}
	p.ScanIDs, err = collectIDs(ctx, q, `SELECT id FROM scans WHERE project_id = $1 ORDER BY seq`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list project scans: %w", err)
	}
	return nil
}
