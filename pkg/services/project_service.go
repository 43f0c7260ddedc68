package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/cache"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
)

// ProjectService defines the interface for project operations.
type ProjectService interface {
	Create(ctx context.Context, title, description string, ownerID *uuid.UUID) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	ListFiles(ctx context.Context, id uuid.UUID) ([]string, error)
	// AddMember returns apperrors.ErrConflict if the user is already a member.
	AddMember(ctx context.Context, id, userID uuid.UUID) error
	// RemoveMember refuses to remove the project owner.
	RemoveMember(ctx context.Context, id, userID uuid.UUID) error
}

type projectService struct {
	projectRepo repositories.ProjectRepository
	reports     cache.ReportCache
	logger      *zap.Logger
}

// NewProjectService creates a new project service with dependencies.
// reports is invalidated whenever a project is created.
func NewProjectService(projectRepo repositories.ProjectRepository, reports cache.ReportCache, logger *zap.Logger) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		reports:     reports,
		logger:      logger.Named("project-service"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, title, description string, ownerID *uuid.UUID) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: project title is required", apperrors.ErrValidation)
	}

	project := &models.Project{
		Title:       title,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	invalidateReports(ctx, s.reports, s.logger)

	s.logger.Info("Created project",
		zap.String("project_id", project.ID.String()),
		zap.String("title", project.Title))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projectRepo.Get(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.projectRepo.List(ctx)
}

func (s *projectService) ListFiles(ctx context.Context, id uuid.UUID) ([]string, error) {
	project, err := s.projectRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return project.Files, nil
}

func (s *projectService) AddMember(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.projectRepo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.projectRepo.AddMember(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("Added project member",
		zap.String("project_id", id.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *projectService) RemoveMember(ctx context.Context, id, userID uuid.UUID) error {
	project, err := s.projectRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if project.OwnerID != nil && *project.OwnerID == userID {
		return fmt.Errorf("%w: cannot remove project owner", apperrors.ErrValidation)
	}
	return s.projectRepo.RemoveMember(ctx, id, userID)
}
