package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

// LogsHandler serves the activity feed.
type LogsHandler struct {
	logService services.ActivityLogService
	logger     *zap.Logger
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(logService services.ActivityLogService, logger *zap.Logger) *LogsHandler {
	return &LogsHandler{logService: logService, logger: logger}
}

// RegisterRoutes registers the logs handler's routes on the given mux.
func (h *LogsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/logs", authMiddleware.RequireAuth(h.ListAll))
	mux.HandleFunc("GET /api/projects/{pid}/logs", authMiddleware.RequireAuth(h.ListByProject))
	mux.HandleFunc("DELETE /api/logs/{lid}", authMiddleware.RequireAuth(h.Delete))
}

// ListAll handles GET /api/logs
func (h *LogsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	logs, err := h.logService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list logs")
		return
	}
	writeData(w, h.logger, http.StatusOK, logs, "")
}

// ListByProject handles GET /api/projects/{pid}/logs
func (h *LogsHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	logs, err := h.logService.ListByProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list project logs")
		return
	}
	writeData(w, h.logger, http.StatusOK, logs, "")
}

// Delete handles DELETE /api/logs/{lid}
func (h *LogsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logID, ok := ParseLogID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.logService.Delete(r.Context(), logID); err != nil {
		writeServiceError(w, h.logger, err, "delete log")
		return
	}
	writeData(w, h.logger, http.StatusOK, nil, "Log deleted successfully")
}
