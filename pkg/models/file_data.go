package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FileContent is the stored source and parsed AST of one project file.
type FileContent struct {
	Code string          `json:"code"`
	AST  json.RawMessage `json:"ast,omitempty"`
}

// ProjectFileData is a single stored file of a project.
type ProjectFileData struct {
	ProjectID uuid.UUID `json:"project_id"`
	FileName  string    `json:"file_name"`
	FileContent
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAST reports whether a non-empty AST is stored.
func (f *FileContent) HasAST() bool {
	s := string(f.AST)
	return s != "" && s != "null" && s != "{}" && s != "[]"
}
