package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

// SaveGraphRequest for POST /api/graphs
type SaveGraphRequest struct {
	ProjectTitle string          `json:"projectTitle"`
	GraphData    json.RawMessage `json:"graphData"`
}

// GraphsHandler handles dependency graph requests.
type GraphsHandler struct {
	graphService services.GraphService
	logger       *zap.Logger
}

// NewGraphsHandler creates a new graphs handler.
func NewGraphsHandler(graphService services.GraphService, logger *zap.Logger) *GraphsHandler {
	return &GraphsHandler{graphService: graphService, logger: logger}
}

// RegisterRoutes registers the graphs handler's routes on the given mux.
func (h *GraphsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/graphs", authMiddleware.RequireAuth(h.Save))
	mux.HandleFunc("GET /api/projects/{pid}/graph", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("DELETE /api/projects/{pid}/graph", authMiddleware.RequireAuth(h.Delete))
}

// Save handles POST /api/graphs
// Responds 201 when the project had no graph yet and 200 when it was replaced.
func (h *GraphsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveGraphRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	graph, created, err := h.graphService.CreateOrReplace(r.Context(), req.ProjectTitle, req.GraphData)
	if err != nil {
		writeServiceError(w, h.logger, err, "save dependency graph")
		return
	}

	if created {
		writeData(w, h.logger, http.StatusCreated, graph, "Graph created successfully")
		return
	}
	writeData(w, h.logger, http.StatusOK, graph, "Graph updated successfully")
}

// Get handles GET /api/projects/{pid}/graph
func (h *GraphsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	graph, err := h.graphService.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get dependency graph")
		return
	}
	writeData(w, h.logger, http.StatusOK, graph, "")
}

// Delete handles DELETE /api/projects/{pid}/graph
func (h *GraphsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.graphService.Delete(r.Context(), projectID); err != nil {
		writeServiceError(w, h.logger, err, "delete dependency graph")
		return
	}
	writeData(w, h.logger, http.StatusOK, nil, "Graph deleted successfully")
}
