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
	"github.com/codenexus/codenexus-engine/pkg/logging"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
	"github.com/codenexus/codenexus-engine/pkg/smells"
)

// ScanService manages the scan lifecycle: recording detections, attaching
// refactors and reading back the latest scan of a project.
type ScanService interface {
	// StartDetectionScan records a new scan for the project with the given
	// title, stores the detection payload and logs a "detected" activity.
	StartDetectionScan(ctx context.Context, projectTitle string, payload json.RawMessage, scanType models.ScanType, scanName string) (*DetectionResult, error)

	// AttachRefactor stores refactoring data for a file and links it to the
	// project's latest scan. Returns apperrors.ErrNoScans if the project has
	// never been scanned.
	AttachRefactor(ctx context.Context, projectTitle string, filePath string, data *models.RefactoringData) (*models.Refactor, error)

	// GetLatestScan returns the project's latest scan with its detections.
	GetLatestScan(ctx context.Context, projectID uuid.UUID) (*models.ScanWithDetections, error)

	// RecalculateTotals recomputes every scan's total from its detections and
	// returns how many scans were corrected.
	RecalculateTotals(ctx context.Context) (int, error)
}

// DetectionResult is the outcome of StartDetectionScan.
type DetectionResult struct {
	Scan                *models.Scan     `json:"scan"`
	TotalIssuesDetected int              `json:"total_issues_detected"`
	Breakdown           smells.Breakdown `json:"breakdown"`
}

type scanService struct {
	projectRepo   repositories.ProjectRepository
	scanRepo      repositories.ScanRepository
	detectionRepo repositories.DetectionRepository
	refactorRepo  repositories.RefactorRepository
	logRepo       repositories.ActivityLogRepository
	tx            database.Transactor
	reports       cache.ReportCache
	logger        *zap.Logger
}

// NewScanService creates a new ScanService.
func NewScanService(
	projectRepo repositories.ProjectRepository,
	scanRepo repositories.ScanRepository,
	detectionRepo repositories.DetectionRepository,
	refactorRepo repositories.RefactorRepository,
	logRepo repositories.ActivityLogRepository,
	tx database.Transactor,
	reports cache.ReportCache,
	logger *zap.Logger,
) ScanService {
	return &scanService{
		projectRepo:   projectRepo,
		scanRepo:      scanRepo,
		detectionRepo: detectionRepo,
		refactorRepo:  refactorRepo,
		logRepo:       logRepo,
		tx:            tx,
		reports:       reports,
		logger:        logger.Named("scan-service"),
	}
}

var _ ScanService = (*scanService)(nil)

func (s *scanService) StartDetectionScan(
	ctx context.Context,
	projectTitle string,
	payload json.RawMessage,
	scanType models.ScanType,
	scanName string,
) (*DetectionResult, error) {
	projectTitle = strings.TrimSpace(projectTitle)
	if projectTitle == "" {
		return nil, fmt.Errorf("%w: project title is required", apperrors.ErrValidation)
	}
	if !isJSONObject(payload) {
		return nil, fmt.Errorf("%w: detection payload must be a JSON object", apperrors.ErrValidation)
	}
	if scanType == "" {
		scanType = models.ScanTypeAutomatic
	}
	if !scanType.Valid() {
		return nil, fmt.Errorf("%w: unknown scan type %q", apperrors.ErrValidation, scanType)
	}
	scanName = strings.TrimSpace(scanName)
	if scanName == "" {
		scanName = models.DefaultScanName
	}

	project, err := s.projectByTitle(ctx, projectTitle)
	if err != nil {
		return nil, err
	}

	counted := smells.CountJSON(payload)

	scan := &models.Scan{
		ProjectID:           project.ID,
		ScanType:            scanType,
		ScanName:            scanName,
		TotalIssuesDetected: counted.Total,
	}
	detection := &models.Detection{Payload: payload}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.projectRepo.LockForUpdate(ctx, project.ID); err != nil {
			return err
		}
		if err := s.scanRepo.Create(ctx, scan); err != nil {
			return err
		}

		detection.ScanID = scan.ID
		if err := s.detectionRepo.Create(ctx, detection); err != nil {
			return err
		}
		scan.DetectionIDs = append(scan.DetectionIDs, detection.ID)

		return s.logRepo.Create(ctx, &models.ActivityLog{
			ProjectID: project.ID,
			Type:      models.ActivityDetected,
			Message:   fmt.Sprintf("Detected %d code smells in %s (%s scan %q)", counted.Total, project.Title, scanType, scanName),
			ObjectID:  scan.ID,
		})
	})
	if err != nil {
		s.logger.Error("Failed to record detection scan",
			zap.String("project_id", project.ID.String()),
			zap.String("payload", logging.TruncatePayload(payload)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record detection scan: %w", err)
	}

	s.invalidateReports(ctx)

	s.logger.Info("Recorded detection scan",
		zap.String("project_id", project.ID.String()),
		zap.String("scan_id", scan.ID.String()),
		zap.Int("total_issues_detected", counted.Total),
		zap.String("payload_shape", smells.DetectShape(smells.Decode(payload)).String()))

	return &DetectionResult{
		Scan:                scan,
		TotalIssuesDetected: counted.Total,
		Breakdown:           counted.Breakdown,
	}, nil
}

func (s *scanService) AttachRefactor(
	ctx context.Context,
	projectTitle string,
	filePath string,
	data *models.RefactoringData,
) (*models.Refactor, error) {
	projectTitle = strings.TrimSpace(projectTitle)
	if projectTitle == "" {
		return nil, fmt.Errorf("%w: project title is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: file path is required", apperrors.ErrValidation)
	}
	if data == nil {
		data = &models.RefactoringData{Success: true}
	}

	project, err := s.projectByTitle(ctx, projectTitle)
	if err != nil {
		return nil, err
	}

	var refactor *models.Refactor
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.projectRepo.LockForUpdate(ctx, project.ID); err != nil {
			return err
		}

		latest, err := s.scanRepo.GetLatestByProject(ctx, project.ID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNoScans
		}
		if err != nil {
			return err
		}

		if err := s.refactorRepo.CreateData(ctx, data); err != nil {
			return err
		}

		refactor = &models.Refactor{
			ScanID:            latest.ID,
			FilePath:          filePath,
			RefactoringDataID: data.ID,
			RefactoringData:   data,
		}
		if err := s.refactorRepo.Create(ctx, refactor); err != nil {
			return err
		}

		return s.logRepo.Create(ctx, &models.ActivityLog{
			ProjectID: project.ID,
			Type:      models.ActivityRefactored,
			Message:   fmt.Sprintf("Refactored %s in %s", filePath, project.Title),
			ObjectID:  refactor.ID,
		})
	})
	if errors.Is(err, apperrors.ErrNoScans) {
		return nil, fmt.Errorf("project %q: %w", projectTitle, apperrors.ErrNoScans)
	}
	if err != nil {
		s.logger.Error("Failed to attach refactor",
			zap.String("project_id", project.ID.String()),
			zap.String("file_path", filePath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to attach refactor: %w", err)
	}

	s.invalidateReports(ctx)

	s.logger.Info("Attached refactor",
		zap.String("project_id", project.ID.String()),
		zap.String("scan_id", refactor.ScanID.String()),
		zap.String("file_path", filePath))

	return refactor, nil
}

func (s *scanService) GetLatestScan(ctx context.Context, projectID uuid.UUID) (*models.ScanWithDetections, error) {
	if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
		return nil, err
	}

	scan, err := s.scanRepo.GetLatestByProject(ctx, projectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrNoScans
	}
	if err != nil {
		return nil, err
	}

	detections, err := s.detectionRepo.ListByScan(ctx, scan.ID)
	if err != nil {
		return nil, err
	}

	return &models.ScanWithDetections{Scan: scan, Detections: detections}, nil
}

func (s *scanService) RecalculateTotals(ctx context.Context) (int, error) {
	scans, err := s.scanRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(scans))
	for i, scan := range scans {
		ids[i] = scan.ID
	}
	detections, err := s.detectionRepo.ListByScans(ctx, ids)
	if err != nil {
		return 0, err
	}

	corrected := 0
	for _, scan := range scans {
		dets, ok := detections[scan.ID]
		if !ok {
			// nothing to count from; keep the stored total
			continue
		}
		total := smells.CountMany(models.DecodePayloads(dets)).Total
		if total == scan.TotalIssuesDetected {
			continue
		}

		if err := s.scanRepo.UpdateTotal(ctx, scan.ID, total); err != nil {
			return corrected, err
		}
		s.logger.Info("Corrected scan total",
			zap.String("scan_id", scan.ID.String()),
			zap.Int("previous", scan.TotalIssuesDetected),
			zap.Int("total", total))
		corrected++
	}

	if corrected > 0 {
		s.invalidateReports(ctx)
	}
	return corrected, nil
}

// projectByTitle resolves a title to the oldest project carrying it.
func (s *scanService) projectByTitle(ctx context.Context, title string) (*models.Project, error) {
	return lookupProjectByTitle(ctx, s.projectRepo, title, s.logger)
}

func (s *scanService) invalidateReports(ctx context.Context) {
	invalidateReports(ctx, s.reports, s.logger)
}

// invalidateReports drops every cached cross-project report. Callers run it
// after their transaction commits.
func invalidateReports(ctx context.Context, reports cache.ReportCache, logger *zap.Logger) {
	if err := reports.Invalidate(ctx, cache.AllReportKeys...); err != nil {
		logger.Warn("Failed to invalidate cached reports", zap.Error(err))
	}
}

func lookupProjectByTitle(ctx context.Context, repo repositories.ProjectRepository, title string, logger *zap.Logger) (*models.Project, error) {
	project, matches, err := repo.GetByTitle(ctx, title)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("project %q: %w", title, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if matches > 1 {
		logger.Warn("Project title is ambiguous; using the oldest project",
			zap.String("title", title),
			zap.Int("matches", matches),
			zap.String("project_id", project.ID.String()))
	}
	return project, nil
}

// isJSONObject reports whether raw is a JSON object.
func isJSONObject(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil && obj != nil
}
