package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/cache"
	"github.com/codenexus/codenexus-engine/pkg/database"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
	"github.com/codenexus/codenexus-engine/pkg/smells"
)

// ReportService builds read-only views over scans and detections.
type ReportService interface {
	// LatestScansInWindow returns, per project, the latest scan started in the
	// current window (today, trailing 7 days or trailing 30 days). Projects
	// without a scan in the window are omitted.
	LatestScansInWindow(ctx context.Context, period models.Period) ([]*models.ProjectScan, error)

	// ScanHistoryByBucket returns, per project, the latest scan of every
	// calendar day, ISO week or month that has scans.
	ScanHistoryByBucket(ctx context.Context, period models.Period) ([]*models.BucketedScan, error)

	// CodeSmellTypeCountForProject returns the category breakdown of the
	// project's latest scan. A project without scans yields all zeros.
	CodeSmellTypeCountForProject(ctx context.Context, projectID uuid.UUID) (*models.CodeSmellTypeCount, error)

	// CodeSmellDistributionAcrossProjects returns one breakdown row per project.
	CodeSmellDistributionAcrossProjects(ctx context.Context) ([]*models.ProjectCodeSmellDistribution, error)

	// FilesByCodeSmellCountForProject ranks the files of the project's latest scan.
	FilesByCodeSmellCountForProject(ctx context.Context, projectID uuid.UUID) ([]smells.FileSmellEntry, error)

	// ProjectOverviews summarizes scan counts and latest totals for every project.
	ProjectOverviews(ctx context.Context) (*models.ProjectOverviewReport, error)
}

// ReportOptions tune a ReportService.
type ReportOptions struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// Location is used for day boundaries and bucket keys. Defaults to time.Local.
	Location *time.Location
	// Concurrency bounds per-project fan-out. Defaults to 4.
	Concurrency int
}

type reportService struct {
	projectRepo   repositories.ProjectRepository
	scanRepo      repositories.ScanRepository
	detectionRepo repositories.DetectionRepository
	reports       cache.ReportCache
	scoped        database.ScopeFunc
	clock         func() time.Time
	loc           *time.Location
	concurrency   int
	logger        *zap.Logger
}

// NewReportService creates a new ReportService. scoped supplies a separate
// database connection to each concurrent per-project query.
func NewReportService(
	projectRepo repositories.ProjectRepository,
	scanRepo repositories.ScanRepository,
	detectionRepo repositories.DetectionRepository,
	reports cache.ReportCache,
	scoped database.ScopeFunc,
	opts ReportOptions,
	logger *zap.Logger,
) ReportService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	return &reportService{
		projectRepo:   projectRepo,
		scanRepo:      scanRepo,
		detectionRepo: detectionRepo,
		reports:       reports,
		scoped:        scoped,
		clock:         opts.Clock,
		loc:           opts.Location,
		concurrency:   opts.Concurrency,
		logger:        logger.Named("report-service"),
	}
}

var _ ReportService = (*reportService)(nil)

func (s *reportService) LatestScansInWindow(ctx context.Context, period models.Period) ([]*models.ProjectScan, error) {
	now := s.clock().In(s.loc)
	since, err := WindowStart(period, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	scans, err := s.scanRepo.ListLatestInWindow(ctx, since, now)
	if err != nil {
		return nil, err
	}

	byProject := make(map[uuid.UUID]*models.Scan, len(scans))
	for _, scan := range scans {
		byProject[scan.ProjectID] = scan
	}

	result := make([]*models.ProjectScan, 0, len(scans))
	for _, p := range projects {
		scan, ok := byProject[p.ID]
		if !ok {
			continue
		}
		result = append(result, &models.ProjectScan{
			ProjectID:    p.ID,
			ProjectTitle: p.Title,
			Scan:         scan,
		})
	}
	return result, nil
}

func (s *reportService) ScanHistoryByBucket(ctx context.Context, period models.Period) ([]*models.BucketedScan, error) {
	if _, err := BucketKey(period, time.Time{}); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	scans, err := s.scanRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	byProject := make(map[uuid.UUID][]*models.Scan)
	for _, scan := range scans {
		byProject[scan.ProjectID] = append(byProject[scan.ProjectID], scan)
	}

	result := make([]*models.BucketedScan, 0)
	for _, p := range projects {
		latest, keys, err := latestPerBucket(period, byProject[p.ID], s.loc)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			result = append(result, &models.BucketedScan{
				ProjectID:    p.ID,
				ProjectTitle: p.Title,
				Bucket:       key,
				Scan:         latest[key],
			})
		}
	}
	return result, nil
}

func (s *reportService) CodeSmellTypeCountForProject(ctx context.Context, projectID uuid.UUID) (*models.CodeSmellTypeCount, error) {
	if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.latestBreakdown(ctx, projectID)
}

func (s *reportService) CodeSmellDistributionAcrossProjects(ctx context.Context) ([]*models.ProjectCodeSmellDistribution, error) {
	return cachedReport(ctx, s, cache.KeyCodeSmellDistribution, s.computeDistribution)
}

func (s *reportService) computeDistribution(ctx context.Context) ([]*models.ProjectCodeSmellDistribution, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]*models.ProjectCodeSmellDistribution, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range projects {
		g.Go(func() error {
			scopedCtx, release, err := s.scoped(gctx)
			if err != nil {
				return err
			}
			defer release()

			counts, err := s.latestBreakdown(scopedCtx, p.ID)
			if err != nil {
				return err
			}
			rows[i] = &models.ProjectCodeSmellDistribution{
				ProjectID:   p.ID,
				ProjectName: p.Title,
				Total:       counts.Total,
				Breakdown:   counts.Breakdown,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *reportService) FilesByCodeSmellCountForProject(ctx context.Context, projectID uuid.UUID) ([]smells.FileSmellEntry, error) {
	if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
		return nil, err
	}

	scan, err := s.scanRepo.GetLatestByProject(ctx, projectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return []smells.FileSmellEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	detections, err := s.detectionRepo.ListByScan(ctx, scan.ID)
	if err != nil {
		return nil, err
	}
	return smells.FilesByCodeSmellCount(models.DecodePayloads(detections)), nil
}

func (s *reportService) ProjectOverviews(ctx context.Context) (*models.ProjectOverviewReport, error) {
	return cachedReport(ctx, s, cache.KeyProjectOverview, s.computeOverviews)
}

func (s *reportService) computeOverviews(ctx context.Context) (*models.ProjectOverviewReport, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.scanRepo.StatsByProject(ctx)
	if err != nil {
		return nil, err
	}
	latestScans, err := s.scanRepo.ListLatestPerProject(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]*models.Scan, len(latestScans))
	for _, scan := range latestScans {
		latest[scan.ProjectID] = scan
	}

	report := &models.ProjectOverviewReport{
		Projects: make([]*models.ProjectOverview, 0, len(projects)),
	}
	for _, p := range projects {
		overview := &models.ProjectOverview{
			ProjectID:   p.ID,
			Title:       p.Title,
			Description: p.Description,
		}
		if st, ok := stats[p.ID]; ok {
			overview.TotalScans = st.TotalScans
			overview.TotalRefactors = st.TotalRefactors
		}
		if scan, ok := latest[p.ID]; ok {
			overview.CodeSmellsInLatestScan = scan.TotalIssuesDetected
		}
		report.TotalCodeSmells += overview.CodeSmellsInLatestScan
		report.Projects = append(report.Projects, overview)
	}
	return report, nil
}

// cachedReport serves key from the report cache, computing and storing the
// report on a miss. Cache failures only cost the cache.
func cachedReport[T any](ctx context.Context, s *reportService, key string, compute func(context.Context) (T, error)) (T, error) {
	gen, genErr := s.reports.Generation(ctx)
	if genErr != nil {
		s.logger.Warn("Failed to read report generation", zap.String("key", key), zap.Error(genErr))
	} else {
		var cached T
		if hit, err := s.reports.Get(ctx, key, &cached); err != nil {
			s.logger.Warn("Failed to read cached report", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	report, err := compute(ctx)
	if err != nil {
		return report, err
	}

	if genErr == nil {
		if err := s.reports.Set(ctx, gen, key, report); err != nil {
			s.logger.Warn("Failed to cache report", zap.String("key", key), zap.Error(err))
		}
	}
	return report, nil
}

// latestBreakdown counts the detections of the project's latest scan.
func (s *reportService) latestBreakdown(ctx context.Context, projectID uuid.UUID) (*models.CodeSmellTypeCount, error) {
	result := &models.CodeSmellTypeCount{
		ProjectID: projectID,
		Breakdown: smells.NewBreakdown(),
	}

	scan, err := s.scanRepo.GetLatestByProject(ctx, projectID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	detections, err := s.detectionRepo.ListByScan(ctx, scan.ID)
	if err != nil {
		return nil, err
	}

	counted := smells.CountMany(models.DecodePayloads(detections))
	result.ScanID = &scan.ID
	result.Total = counted.Total
	result.Breakdown = counted.Breakdown
	return result, nil
}
