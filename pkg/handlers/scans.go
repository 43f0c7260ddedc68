package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// AddDetectionRequest for POST /api/scans/detections
type AddDetectionRequest struct {
	Title         string          `json:"title"`
	DetectionData json.RawMessage `json:"detectionData"`
	ScanType      string          `json:"scan_type,omitempty"`
	ScanName      string          `json:"scan_name,omitempty"`
}

// AddRefactorRequest for POST /api/scans/refactors
type AddRefactorRequest struct {
	Title        string                  `json:"title"`
	FilePath     string                  `json:"file_path"`
	RefactorData *models.RefactoringData `json:"refactorData"`
}

// RecalculateResponse for POST /api/scans/recalculate
type RecalculateResponse struct {
	Corrected int `json:"corrected"`
}

// ============================================================================
// Handler
// ============================================================================

// ScansHandler handles the scan lifecycle endpoints.
type ScansHandler struct {
	scanService services.ScanService
	logger      *zap.Logger
}

// NewScansHandler creates a new scans handler.
func NewScansHandler(scanService services.ScanService, logger *zap.Logger) *ScansHandler {
	return &ScansHandler{
		scanService: scanService,
		logger:      logger,
	}
}

// RegisterRoutes registers the scans handler's routes on the given mux.
func (h *ScansHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/scans/detections", authMiddleware.RequireAuth(h.AddDetection))
	mux.HandleFunc("POST /api/scans/refactors", authMiddleware.RequireAuth(h.AddRefactor))
	mux.HandleFunc("POST /api/scans/recalculate", authMiddleware.RequireAuth(h.Recalculate))
	mux.HandleFunc("GET /api/projects/{pid}/scans/latest", authMiddleware.RequireAuth(h.Latest))
}

// AddDetection handles POST /api/scans/detections
func (h *ScansHandler) AddDetection(w http.ResponseWriter, r *http.Request) {
	var req AddDetectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	result, err := h.scanService.StartDetectionScan(r.Context(), req.Title, req.DetectionData,
		models.ScanType(req.ScanType), req.ScanName)
	if err != nil {
		writeServiceError(w, h.logger, err, "add detection data")
		return
	}

	writeData(w, h.logger, http.StatusCreated, result, "Detection data added successfully")
}

// AddRefactor handles POST /api/scans/refactors
func (h *ScansHandler) AddRefactor(w http.ResponseWriter, r *http.Request) {
	var req AddRefactorRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	refactor, err := h.scanService.AttachRefactor(r.Context(), req.Title, req.FilePath, req.RefactorData)
	if err != nil {
		writeServiceError(w, h.logger, err, "add refactor data")
		return
	}

	writeData(w, h.logger, http.StatusCreated, refactor, "Refactor data added successfully")
}

// Recalculate handles POST /api/scans/recalculate
func (h *ScansHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	corrected, err := h.scanService.RecalculateTotals(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "recalculate scan totals")
		return
	}

	writeData(w, h.logger, http.StatusOK, RecalculateResponse{Corrected: corrected}, "")
}

// Latest handles GET /api/projects/{pid}/scans/latest
func (h *ScansHandler) Latest(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	scan, err := h.scanService.GetLatestScan(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get latest scan")
		return
	}

	writeData(w, h.logger, http.StatusOK, scan, "")
}
