package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

// UpdateFileDataRequest for POST /api/file-data
type UpdateFileDataRequest struct {
	Title    string                        `json:"title"`
	FileData map[string]models.FileContent `json:"fileData"`
}

// FileDataHandler handles stored source file requests.
type FileDataHandler struct {
	fileDataService services.FileDataService
	logger          *zap.Logger
}

// NewFileDataHandler creates a new file data handler.
func NewFileDataHandler(fileDataService services.FileDataService, logger *zap.Logger) *FileDataHandler {
	return &FileDataHandler{fileDataService: fileDataService, logger: logger}
}

// RegisterRoutes registers the file data handler's routes on the given mux.
func (h *FileDataHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/file-data", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("GET /api/projects/{pid}/file-data", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/projects/{pid}/file-data/{name...}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("DELETE /api/projects/{pid}/file-data/{name...}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("GET /api/projects/{pid}/file-data-ast", authMiddleware.RequireAuth(h.ASTAvailability))
}

// Update handles POST /api/file-data
func (h *FileDataHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateFileDataRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.fileDataService.Update(r.Context(), req.Title, req.FileData)
	if err != nil {
		writeServiceError(w, h.logger, err, "update file data")
		return
	}
	writeData(w, h.logger, http.StatusOK, result, "File data updated successfully")
}

// List handles GET /api/projects/{pid}/file-data
func (h *FileDataHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	files, err := h.fileDataService.ListByProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list file data")
		return
	}
	writeData(w, h.logger, http.StatusOK, files, "")
}

// Get handles GET /api/projects/{pid}/file-data/{name...}
func (h *FileDataHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	file, err := h.fileDataService.GetFile(r.Context(), projectID, r.PathValue("name"))
	if err != nil {
		writeServiceError(w, h.logger, err, "get file data")
		return
	}
	writeData(w, h.logger, http.StatusOK, file, "")
}

// Delete handles DELETE /api/projects/{pid}/file-data/{name...}
func (h *FileDataHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.fileDataService.DeleteFile(r.Context(), projectID, r.PathValue("name")); err != nil {
		writeServiceError(w, h.logger, err, "delete file data")
		return
	}
	writeData(w, h.logger, http.StatusOK, nil, "File deleted successfully")
}

// ASTAvailability handles GET /api/projects/{pid}/file-data-ast
func (h *FileDataHandler) ASTAvailability(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	availability, err := h.fileDataService.ASTAvailability(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "check AST availability")
		return
	}
	writeData(w, h.logger, http.StatusOK, availability, "")
}
