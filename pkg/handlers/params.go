package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// ParseProjectID extracts and validates the project ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: pid
func ParseProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_project_id", "Invalid project ID format", logger)
}

// ParseLogID extracts and validates the activity log ID from the request path.
// Expects path parameter: lid
func ParseLogID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "lid", "invalid_log_id", "Invalid log ID format", logger)
}

// ParsePeriod extracts and validates the reporting period from the request path.
// Expects path parameter: period
func ParsePeriod(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (models.Period, bool) {
	period, err := models.ParsePeriod(r.PathValue("period"))
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_period", "Period must be daily, weekly or monthly")
		return "", false
	}
	return period, true
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, errorCode, errorMessage)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body into dest, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any, logger *zap.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}
