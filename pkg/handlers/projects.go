package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

// CreateProjectRequest for POST /api/projects
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MemberRequest for POST/DELETE /api/projects/{pid}/members
type MemberRequest struct {
	UserID string `json:"userId"`
}

// ProjectsHandler handles project-related HTTP requests.
type ProjectsHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/projects", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/projects", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/projects/{pid}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("GET /api/projects/{pid}/files", authMiddleware.RequireAuth(h.ListFiles))
	mux.HandleFunc("POST /api/projects/{pid}/members", authMiddleware.RequireAuth(h.AddMember))
	mux.HandleFunc("DELETE /api/projects/{pid}/members", authMiddleware.RequireAuth(h.RemoveMember))
}

// Create handles POST /api/projects
// The authenticated user becomes the owner when the token subject is a UUID.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	var owner *uuid.UUID
	if userID, ok := auth.GetUserUUIDFromContext(r.Context()); ok {
		owner = &userID
	}

	project, err := h.projectService.Create(r.Context(), req.Title, req.Description, owner)
	if err != nil {
		writeServiceError(w, h.logger, err, "create project")
		return
	}
	writeData(w, h.logger, http.StatusCreated, project, "Project created successfully")
}

// List handles GET /api/projects
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list projects")
		return
	}
	writeData(w, h.logger, http.StatusOK, projects, "")
}

// Get handles GET /api/projects/{pid}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get project")
		return
	}
	writeData(w, h.logger, http.StatusOK, project, "")
}

// ListFiles handles GET /api/projects/{pid}/files
func (h *ProjectsHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	files, err := h.projectService.ListFiles(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list project files")
		return
	}
	writeData(w, h.logger, http.StatusOK, files, "")
}

// AddMember handles POST /api/projects/{pid}/members
func (h *ProjectsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.parseMember(w, r)
	if !ok {
		return
	}

	if err := h.projectService.AddMember(r.Context(), projectID, userID); err != nil {
		writeServiceError(w, h.logger, err, "add project member")
		return
	}
	writeData(w, h.logger, http.StatusOK, nil, "Member added successfully")
}

// RemoveMember handles DELETE /api/projects/{pid}/members
func (h *ProjectsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.parseMember(w, r)
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(r.Context(), projectID, userID); err != nil {
		writeServiceError(w, h.logger, err, "remove project member")
		return
	}
	writeData(w, h.logger, http.StatusOK, nil, "Member removed successfully")
}

func (h *ProjectsHandler) parseMember(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	var req MemberRequest
	if !decodeBody(w, r, &req, h.logger) {
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_user_id", "Invalid user ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, userID, true
}
