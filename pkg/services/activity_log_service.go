package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
)

// ActivityLogService exposes the detection and refactor activity feed.
type ActivityLogService interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ActivityLog, error)
	ListAll(ctx context.Context) ([]*models.ActivityLog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type activityLogService struct {
	projectRepo repositories.ProjectRepository
	logRepo     repositories.ActivityLogRepository
	logger      *zap.Logger
}

// NewActivityLogService creates a new ActivityLogService.
func NewActivityLogService(projectRepo repositories.ProjectRepository, logRepo repositories.ActivityLogRepository, logger *zap.Logger) ActivityLogService {
	return &activityLogService{
		projectRepo: projectRepo,
		logRepo:     logRepo,
		logger:      logger.Named("activity-log-service"),
	}
}

var _ ActivityLogService = (*activityLogService)(nil)

func (s *activityLogService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ActivityLog, error) {
	if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.logRepo.ListByProject(ctx, projectID)
}

func (s *activityLogService) ListAll(ctx context.Context) ([]*models.ActivityLog, error) {
	return s.logRepo.ListAll(ctx)
}

func (s *activityLogService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.logRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted activity log", zap.String("log_id", id.String()))
	return nil
}
