package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codenexus/codenexus-engine/pkg/models"
)

// DetectionRepository defines the interface for detection data access.
type DetectionRepository interface {
	Create(ctx context.Context, detection *models.Detection) error
	ListByScan(ctx context.Context, scanID uuid.UUID) ([]*models.Detection, error)
	// ListByScans returns detections grouped by scan ID.
	ListByScans(ctx context.Context, scanIDs []uuid.UUID) (map[uuid.UUID][]*models.Detection, error)
}

type detectionRepository struct{}

// NewDetectionRepository creates a new detection repository.
func NewDetectionRepository() DetectionRepository {
	return &detectionRepository{}
}

var _ DetectionRepository = (*detectionRepository)(nil)

func (r *detectionRepository) Create(ctx context.Context, detection *models.Detection) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if detection.ID == uuid.Nil {
		detection.ID = uuid.New()
	}

	err = q.QueryRow(ctx, `
		INSERT INTO detections (id, scan_id, payload)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		detection.ID, detection.ScanID, []byte(detection.Payload),
	).Scan(&detection.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create detection: %w", err)
	}
	return nil
}

func (r *detectionRepository) ListByScan(ctx context.Context, scanID uuid.UUID) ([]*models.Detection, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, scan_id, payload, created_at
		FROM detections
		WHERE scan_id = $1
		ORDER BY seq`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	return collectDetections(rows)
}

func (r *detectionRepository) ListByScans(ctx context.Context, scanIDs []uuid.UUID) (map[uuid.UUID][]*models.Detection, error) {
	result := make(map[uuid.UUID][]*models.Detection, len(scanIDs))
	if len(scanIDs) == 0 {
		return result, nil
	}

	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, scan_id, payload, created_at
		FROM detections
		WHERE scan_id = ANY($1)
		ORDER BY scan_id, seq`, scanIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}

	detections, err := collectDetections(rows)
	if err != nil {
		return nil, err
	}
	for _, d := range detections {
		result[d.ScanID] = append(result[d.ScanID], d)
	}
	return result, nil
}

func collectDetections(rows pgx.Rows) ([]*models.Detection, error) {
	defer rows.Close()

	detections := make([]*models.Detection, 0)
	for rows.Next() {
		var d models.Detection
		var payload []byte
		if err := rows.Scan(&d.ID, &d.ScanID, &payload, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		d.Payload = payload
		detections = append(detections, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detections: %w", err)
	}
	return detections, nil
}
