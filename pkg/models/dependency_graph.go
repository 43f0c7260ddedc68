package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DependencyGraph is the module dependency graph of a project. A project has at most one.
type DependencyGraph struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"project_id"`
	GraphData json.RawMessage `json:"graph_data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
