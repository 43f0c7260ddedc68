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

// ScanRepository defines the interface for scan data access.
// "Latest" always means greatest started_at, ties broken by append order.
type ScanRepository interface {
	Create(ctx context.Context, scan *models.Scan) error
	Get(ctx context.Context, id uuid.UUID) (*models.Scan, error)
	// GetLatestByProject returns apperrors.ErrNotFound when the project has no scans.
	GetLatestByProject(ctx context.Context, projectID uuid.UUID) (*models.Scan, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Scan, error)
	// ListAll returns every scan ordered by project and append order.
	ListAll(ctx context.Context) ([]*models.Scan, error)
	// ListLatestPerProject returns each project's latest scan.
	ListLatestPerProject(ctx context.Context) ([]*models.Scan, error)
	// ListLatestInWindow returns each project's latest scan started within [since, until].
	ListLatestInWindow(ctx context.Context, since, until time.Time) ([]*models.Scan, error)
	UpdateTotal(ctx context.Context, id uuid.UUID, total int) error
	// StatsByProject counts scans and refactors per project.
	StatsByProject(ctx context.Context) (map[uuid.UUID]*models.ScanStats, error)
}

type scanRepository struct{}

// NewScanRepository creates a new scan repository.
func NewScanRepository() ScanRepository {
	return &scanRepository{}
}

var _ ScanRepository = (*scanRepository)(nil)

const scanColumns = `id, project_id, seq, scan_type, scan_name, started_at, completed_at, total_issues_detected, created_at`

func scanScan(row pgx.Row) (*models.Scan, error) {
	var s models.Scan
	err := row.Scan(&s.ID, &s.ProjectID, &s.Seq, &s.ScanType, &s.ScanName,
		&s.StartedAt, &s.CompletedAt, &s.TotalIssuesDetected, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.DetectionIDs = []uuid.UUID{}
	s.RefactorIDs = []uuid.UUID{}
	return &s, nil
}

func collectScans(rows pgx.Rows) ([]*models.Scan, error) {
	defer rows.Close()

	scans := make([]*models.Scan, 0)
	for rows.Next() {
		s, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}
	return scans, nil
}

// Create inserts the scan. StartedAt defaults to the database clock when zero.
func (r *scanRepository) Create(ctx context.Context, scan *models.Scan) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	if scan.ScanType == "" {
		scan.ScanType = models.ScanTypeAutomatic
	}
	if scan.ScanName == "" {
		scan.ScanName = models.DefaultScanName
	}

	var startedAt *time.Time
	if !scan.StartedAt.IsZero() {
		startedAt = &scan.StartedAt
	}

	err = q.QueryRow(ctx, `
		INSERT INTO scans (id, project_id, scan_type, scan_name, started_at, completed_at, total_issues_detected)
		VALUES ($1, $2, $3, $4, COALESCE($5, clock_timestamp()), $6, $7)
		RETURNING seq, started_at, created_at`,
		scan.ID, scan.ProjectID, scan.ScanType, scan.ScanName, startedAt, scan.CompletedAt, scan.TotalIssuesDetected,
	).Scan(&scan.Seq, &scan.StartedAt, &scan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scan: %w", err)
	}

	if scan.DetectionIDs == nil {
		scan.DetectionIDs = []uuid.UUID{}
	}
	if scan.RefactorIDs == nil {
		scan.RefactorIDs = []uuid.UUID{}
	}
	return nil
}

// Get retrieves a scan with its derived detection and refactor IDs.
func (r *scanRepository) Get(ctx context.Context, id uuid.UUID) (*models.Scan, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	scan, err := scanScan(q.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "get scan")
	}
	if err := r.loadChildIDs(ctx, scan); err != nil {
		return nil, err
	}
	return scan, nil
}

func (r *scanRepository) GetLatestByProject(ctx context.Context, projectID uuid.UUID) (*models.Scan, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	scan, err := scanScan(q.QueryRow(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE project_id = $1
		ORDER BY started_at DESC, seq DESC
		LIMIT 1`, projectID))
	if err != nil {
		return nil, notFound(err, "get latest scan")
	}
	if err := r.loadChildIDs(ctx, scan); err != nil {
		return nil, err
	}
	return scan, nil
}

func (r *scanRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Scan, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+scanColumns+` FROM scans WHERE project_id = $1 ORDER BY seq`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return collectScans(rows)
}

func (r *scanRepository) ListAll(ctx context.Context) ([]*models.Scan, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+scanColumns+` FROM scans ORDER BY project_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return collectScans(rows)
}

func (r *scanRepository) ListLatestPerProject(ctx context.Context) ([]*models.Scan, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT DISTINCT ON (project_id) `+scanColumns+`
		FROM scans
		ORDER BY project_id, started_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest scans: %w", err)
	}
	return collectScans(rows)
}

func (r *scanRepository) ListLatestInWindow(ctx context.Context, since, until time.Time) ([]*models.Scan, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT DISTINCT ON (project_id) `+scanColumns+`
		FROM scans
		WHERE started_at >= $1 AND started_at <= $2
		ORDER BY project_id, started_at DESC, seq DESC`, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans in window: %w", err)
	}
	return collectScans(rows)
}

func (r *scanRepository) UpdateTotal(ctx context.Context, id uuid.UUID, total int) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `
		UPDATE scans SET total_issues_detected = $2, updated_at = now()
		WHERE id = $1`, id, total)
	if err != nil {
		return fmt.Errorf("failed to update scan total: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *scanRepository) StatsByProject(ctx context.Context) (map[uuid.UUID]*models.ScanStats, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT s.project_id, COUNT(DISTINCT s.id), COUNT(r.id)
		FROM scans s
		LEFT JOIN refactors r ON r.scan_id = s.id
		GROUP BY s.project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	defer rows.Close()

	stats := make(map[uuid.UUID]*models.ScanStats)
	for rows.Next() {
		var s models.ScanStats
		if err := rows.Scan(&s.ProjectID, &s.TotalScans, &s.TotalRefactors); err != nil {
			return nil, fmt.Errorf("failed to scan scan stats: %w", err)
		}
		stats[s.ProjectID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan stats: %w", err)
	}
	return stats, nil
}

func (r *scanRepository) loadChildIDs(ctx context.Context, scan *models.Scan) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	scan.DetectionIDs, err = collectIDs(ctx, q, `SELECT id FROM detections WHERE scan_id = $1 ORDER BY seq`, scan.ID)
	if err != nil {
		return fmt.Errorf("failed to list scan detections: %w", err)
	}
	scan.RefactorIDs, err = collectIDs(ctx, q, `SELECT id FROM refactors WHERE scan_id = $1 ORDER BY seq`, scan.ID)
	if err != nil {
		return fmt.Errorf("failed to list scan refactors: %w", err)
	}
	return nil
}
