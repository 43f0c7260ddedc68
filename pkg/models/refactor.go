package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RefactoringData is the result of one refactoring job.
type RefactoringData struct {
	ID                     uuid.UUID       `json:"id"`
	OriginalCode           string          `json:"original_code"`
	RefactoredCode         string          `json:"refactored_code"`
	RefactoringType        string          `json:"refactoring_type"`
	FilesAffected          []string        `json:"files_affected"`
	RefactoredDependencies json.RawMessage `json:"refactored_dependencies,omitempty"`
	CascadingRefactor      bool            `json:"cascading_refactor"`
	AIBased                bool            `json:"ai_based"`
	JobID                  string          `json:"job_id"`
	Outdated               bool            `json:"outdated"`
	Success                bool            `json:"success"`
	Error                  string          `json:"error,omitempty"`
	Time                   time.Time       `json:"time"`
	CreatedAt              time.Time       `json:"created_at"`
}

// Refactor links refactoring data for one file to the scan it followed.
type Refactor struct {
	ID                uuid.UUID        `json:"id"`
	ScanID            uuid.UUID        `json:"scan_id"`
	FilePath          string           `json:"file_path"`
	RefactoringDataID uuid.UUID        `json:"refactoring_data_id"`
	RefactoringData   *RefactoringData `json:"refactoring_data,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
