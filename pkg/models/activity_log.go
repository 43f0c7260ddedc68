package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivityDetected   ActivityType = "detected"
	ActivityRefactored ActivityType = "refactored"
)

// ActivityLog records a detection or refactor event for a project.
// ObjectID points at the scan (detected) or refactor (refactored).
type ActivityLog struct {
	ID        uuid.UUID    `json:"id"`
	ProjectID uuid.UUID    `json:"project_id"`
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	ObjectID  uuid.UUID    `json:"object_id"`
	CreatedAt time.Time    `json:"created_at"`
}
