package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/models"
)

// DependencyGraphRepository defines the interface for dependency graph data access.
type DependencyGraphRepository interface {
	// Upsert creates the project's graph or replaces its data.
	Upsert(ctx context.Context, graph *models.DependencyGraph) error
	GetByProject(ctx context.Context, projectID uuid.UUID) (*models.DependencyGraph, error)
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}

type dependencyGraphRepository struct{}

// NewDependencyGraphRepository creates a new dependency graph repository.
func NewDependencyGraphRepository() DependencyGraphRepository {
	return &dependencyGraphRepository{}
}

var _ DependencyGraphRepository = (*dependencyGraphRepository)(nil)

func (r *dependencyGraphRepository) Upsert(ctx context.Context, graph *models.DependencyGraph) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if graph.ID == uuid.Nil {
		graph.ID = uuid.New()
	}

	err = q.QueryRow(ctx, `
		INSERT INTO dependency_graphs (id, project_id, graph_data)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id) DO UPDATE
		SET graph_data = EXCLUDED.graph_data,
		    updated_at = now()
		RETURNING id, created_at, updated_at`,
		graph.ID, graph.ProjectID, []byte(graph.GraphData),
	).Scan(&graph.ID, &graph.CreatedAt, &graph.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert dependency graph: %w", err)
	}
	return nil
}

func (r *dependencyGraphRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*models.DependencyGraph, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	var g models.DependencyGraph
	var data []byte
	err = q.QueryRow(ctx, `
		SELECT id, project_id, graph_data, created_at, updated_at
		FROM dependency_graphs
		WHERE project_id = $1`, projectID,
	).Scan(&g.ID, &g.ProjectID, &data, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get dependency graph")
	}
	g.GraphData = data
	return &g, nil
}

func (r *dependencyGraphRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `DELETE FROM dependency_graphs WHERE project_id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete dependency graph: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
