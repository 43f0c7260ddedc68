package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/cache"
	"github.com/codenexus/codenexus-engine/pkg/database"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
)

// GraphService stores one dependency graph per project.
type GraphService interface {
	// CreateOrReplace stores the graph for the project with the given title,
	// creating the project if it does not exist yet. created reports whether
	// the project had no graph before.
	CreateOrReplace(ctx context.Context, projectTitle string, graphData json.RawMessage) (graph *models.DependencyGraph, created bool, err error)
	Get(ctx context.Context, projectID uuid.UUID) (*models.DependencyGraph, error)
	Delete(ctx context.Context, projectID uuid.UUID) error
}

type graphService struct {
	projectRepo repositories.ProjectRepository
	graphRepo   repositories.DependencyGraphRepository
	tx          database.Transactor
	reports     cache.ReportCache
	logger      *zap.Logger
}

// NewGraphService creates a new GraphService.
func NewGraphService(
	projectRepo repositories.ProjectRepository,
	graphRepo repositories.DependencyGraphRepository,
	tx database.Transactor,
	reports cache.ReportCache,
	logger *zap.Logger,
) GraphService {
	return &graphService{
		projectRepo: projectRepo,
		graphRepo:   graphRepo,
		tx:          tx,
		reports:     reports,
		logger:      logger.Named("graph-service"),
	}
}

var _ GraphService = (*graphService)(nil)

func (s *graphService) CreateOrReplace(ctx context.Context, projectTitle string, graphData json.RawMessage) (*models.DependencyGraph, bool, error) {
	projectTitle = strings.TrimSpace(projectTitle)
	if projectTitle == "" || len(graphData) == 0 || string(graphData) == "null" {
		return nil, false, fmt.Errorf("%w: project title and graph data are required", apperrors.ErrValidation)
	}
	if !json.Valid(graphData) {
		return nil, false, fmt.Errorf("%w: graph data must be valid JSON", apperrors.ErrValidation)
	}

	graph := &models.DependencyGraph{GraphData: graphData}
	created := false
	projectCreated := false

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		project, err := lookupProjectByTitle(ctx, s.projectRepo, projectTitle, s.logger)
		if errors.Is(err, apperrors.ErrNotFound) {
			project = &models.Project{Title: projectTitle}
			if err := s.projectRepo.Create(ctx, project); err != nil {
				return err
			}
			projectCreated = true
			s.logger.Info("Created project for dependency graph",
				zap.String("project_id", project.ID.String()),
				zap.String("title", projectTitle))
		} else if err != nil {
			return err
		}

		if err := s.projectRepo.LockForUpdate(ctx, project.ID); err != nil {
			return err
		}

		_, err = s.graphRepo.GetByProject(ctx, project.ID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			created = true
		case err != nil:
			return err
		}

		graph.ProjectID = project.ID
		return s.graphRepo.Upsert(ctx, graph)
	})
	if err != nil {
		return nil, false, err
	}
	if projectCreated {
		invalidateReports(ctx, s.reports, s.logger)
	}

	return graph, created, nil
}

func (s *graphService) Get(ctx context.Context, projectID uuid.UUID) (*models.DependencyGraph, error) {
	return s.graphRepo.GetByProject(ctx, projectID)
}

func (s *graphService) Delete(ctx context.Context, projectID uuid.UUID) error {
	if err := s.graphRepo.DeleteByProject(ctx, projectID); err != nil {
		return err
	}
	s.logger.Info("Deleted dependency graph", zap.String("project_id", projectID.String()))
	return nil
}
