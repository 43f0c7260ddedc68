package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

// ReportsHandler serves the read-only reporting endpoints.
type ReportsHandler struct {
	reportService services.ReportService
	logger        *zap.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reportService services.ReportService, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// RegisterRoutes registers the reports handler's routes on the given mux.
func (h *ReportsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/scans/daily", authMiddleware.RequireAuth(h.window(models.PeriodDaily)))
	mux.HandleFunc("GET /api/scans/weekly", authMiddleware.RequireAuth(h.window(models.PeriodWeekly)))
	mux.HandleFunc("GET /api/scans/monthly", authMiddleware.RequireAuth(h.window(models.PeriodMonthly)))
	mux.HandleFunc("GET /api/scans/history/{period}", authMiddleware.RequireAuth(h.History))

	mux.HandleFunc("GET /api/projects/{pid}/code-smells", authMiddleware.RequireAuth(h.CodeSmellTypeCount))
	mux.HandleFunc("GET /api/projects/{pid}/files/code-smells", authMiddleware.RequireAuth(h.FilesByCodeSmellCount))
	mux.HandleFunc("GET /api/code-smells/distribution", authMiddleware.RequireAuth(h.Distribution))
	mux.HandleFunc("GET /api/projects/overview", authMiddleware.RequireAuth(h.Overview))
}

// window returns a handler for the latest scans of the current window.
func (h *ReportsHandler) window(period models.Period) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scans, err := h.reportService.LatestScansInWindow(r.Context(), period)
		if err != nil {
			writeServiceError(w, h.logger, err, "get "+string(period)+" scans")
			return
		}
		writeData(w, h.logger, http.StatusOK, scans, "")
	}
}

// History handles GET /api/scans/history/{period}
func (h *ReportsHandler) History(w http.ResponseWriter, r *http.Request) {
	period, ok := ParsePeriod(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.reportService.ScanHistoryByBucket(r.Context(), period)
	if err != nil {
		writeServiceError(w, h.logger, err, "get scan history")
		return
	}
	writeData(w, h.logger, http.StatusOK, history, "")
}

// CodeSmellTypeCount handles GET /api/projects/{pid}/code-smells
func (h *ReportsHandler) CodeSmellTypeCount(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	counts, err := h.reportService.CodeSmellTypeCountForProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "count code smells")
		return
	}
	writeData(w, h.logger, http.StatusOK, counts, "")
}

// FilesByCodeSmellCount handles GET /api/projects/{pid}/files/code-smells
func (h *ReportsHandler) FilesByCodeSmellCount(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	files, err := h.reportService.FilesByCodeSmellCountForProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "rank files by code smells")
		return
	}
	writeData(w, h.logger, http.StatusOK, files, "")
}

// Distribution handles GET /api/code-smells/distribution
func (h *ReportsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reportService.CodeSmellDistributionAcrossProjects(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "get code smell distribution")
		return
	}
	writeData(w, h.logger, http.StatusOK, rows, "")
}

// Overview handles GET /api/projects/overview
func (h *ReportsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.ProjectOverviews(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "get project overview")
		return
	}
	writeData(w, h.logger, http.StatusOK, report, "")
}
