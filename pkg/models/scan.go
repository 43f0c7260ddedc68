package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanType says how a scan was triggered.
type ScanType string

const (
	ScanTypeAutomatic ScanType = "automatic"
	ScanTypeManual    ScanType = "manual"
)

// DefaultScanName is used when a detection is submitted without a scan name.
const DefaultScanName = "General"

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	return t == ScanTypeAutomatic || t == ScanTypeManual
}

// Scan is one analysis run for a project. Scans are append-only: detections
// and refactors are attached but never detached.
type Scan struct {
	ID                  uuid.UUID   `json:"id"`
	ProjectID           uuid.UUID   `json:"project_id"`
	Seq                 int64       `json:"seq"`
	ScanType            ScanType    `json:"scan_type"`
	ScanName            string      `json:"scan_name"`
	StartedAt           time.Time   `json:"started_at"`
	CompletedAt         *time.Time  `json:"completed_at,omitempty"`
	TotalIssuesDetected int         `json:"total_issues_detected"`
	DetectionIDs        []uuid.UUID `json:"detection_ids"`
	RefactorIDs         []uuid.UUID `json:"refactor_ids"`
	CreatedAt           time.Time   `json:"created_at"`
}

// ScanWithDetections is a scan with its detections loaded.
type ScanWithDetections struct {
	*Scan
	Detections []*Detection `json:"detections"`
}

// Later reports whether s should be considered more recent than other:
// a later start time wins, and equal start times fall back to append order.
func (s *Scan) Later(other *Scan) bool {
	if other == nil {
		return true
	}
	if !s.StartedAt.Equal(other.StartedAt) {
		return s.StartedAt.After(other.StartedAt)
	}
	return s.Seq > other.Seq
}
