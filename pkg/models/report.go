package models

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/codenexus/codenexus-engine/pkg/smells"
)

// Period is a reporting bucket size.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod accepts daily/weekly/monthly as well as day/week/month.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "daily", "day":
		return PeriodDaily, nil
	case "weekly", "week":
		return PeriodWeekly, nil
	case "monthly", "month":
		return PeriodMonthly, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// ProjectScan pairs a scan with the project it belongs to.
type ProjectScan struct {
	ProjectID    uuid.UUID `json:"project_id"`
	ProjectTitle string    `json:"project_title"`
	Scan         *Scan     `json:"scan"`
}

// BucketedScan is the latest scan of a project within one time bucket.
type BucketedScan struct {
	ProjectID    uuid.UUID `json:"project_id"`
	ProjectTitle string    `json:"project_title"`
	Bucket       string    `json:"bucket"`
	Scan         *Scan     `json:"scan"`
}

// CodeSmellTypeCount is the category breakdown of a project's latest scan.
// ScanID is nil when the project has no scans.
type CodeSmellTypeCount struct {
	ProjectID uuid.UUID        `json:"project_id"`
	ScanID    *uuid.UUID       `json:"scan_id,omitempty"`
	Total     int              `json:"total"`
	Breakdown smells.Breakdown `json:"breakdown"`
}

// ProjectCodeSmellDistribution is one row of the cross-project distribution.
type ProjectCodeSmellDistribution struct {
	ProjectID   uuid.UUID        `json:"project_id"`
	ProjectName string           `json:"project_name"`
	Total       int              `json:"total"`
	Breakdown   smells.Breakdown `json:"breakdown"`
}

// ProjectOverview summarizes scan activity for one project.
type ProjectOverview struct {
	ProjectID              uuid.UUID `json:"project_id"`
	Title                  string    `json:"title"`
	Description            string    `json:"description"`
	TotalScans             int       `json:"total_scans"`
	CodeSmellsInLatestScan int       `json:"code_smells_in_latest_scan"`
	TotalRefactors         int       `json:"total_refactors"`
}

// ProjectOverviewReport is the overview of every project plus the sum of
// issues found by each project's latest scan.
type ProjectOverviewReport struct {
	Projects        []*ProjectOverview `json:"projects"`
	TotalCodeSmells int                `json:"total_code_smells"`
}

// ScanStats are per-project counters used by the overview report.
type ScanStats struct {
	ProjectID      uuid.UUID
	TotalScans     int
	TotalRefactors int
}
