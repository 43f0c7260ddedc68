// Package models contains domain types for codenexus-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a code base under analysis. Titles are not unique; see
// ProjectRepository.GetByTitle for how lookups by title resolve.
type Project struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	OwnerID     *uuid.UUID  `json:"owner_id,omitempty"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
	Files       []string    `json:"files"`
	ScanIDs     []uuid.UUID `json:"scan_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasFile reports whether name is in the project's file list.
func (p *Project) HasFile(name string) bool {
	for _, f := range p.Files {
		if f == name {
			return true
		}
	}
	return false
}
