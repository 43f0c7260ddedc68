package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/models"
)

func TestParseProjectID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantNilID  bool
		wantStatus int
		wantError  string
	}{
		{
			name:      "valid UUID",
			pathValue: "550e8400-e29b-41d4-a716-446655440000",
			wantOK:    true,
			wantNilID: false,
		},
		{
			name:       "invalid UUID",
			pathValue:  "not-a-uuid",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_project_id",
		},
		{
			name:       "empty UUID",
			pathValue:  "",
			wantOK:     false,
			wantNilID:  true,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_project_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("pid", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseProjectID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseProjectID() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantNilID && id != uuid.Nil {
				t.Errorf("ParseProjectID() id = %v, want uuid.Nil", id)
			}

			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("ParseProjectID() status = %v, want %v", rec.Code, tt.wantStatus)
				}

				var resp map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp["error"] != tt.wantError {
					t.Errorf("ParseProjectID() error = %v, want %v", resp["error"], tt.wantError)
				}
			}
		})
	}
}

func TestParseLogID_Invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/logs/abc", nil)
	req.SetPathValue("lid", "abc")
	rec := httptest.NewRecorder()

	id, ok := ParseLogID(rec, req, zap.NewNop())

	if ok {
		t.Error("ParseLogID() ok = true, want false")
	}
	if id != uuid.Nil {
		t.Errorf("ParseLogID() id = %v, want uuid.Nil", id)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "invalid_log_id" {
		t.Errorf("ParseLogID() error = %v, want invalid_log_id", resp["error"])
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		value  string
		want   models.Period
		wantOK bool
	}{
		{value: "daily", want: models.PeriodDaily, wantOK: true},
		{value: "day", want: models.PeriodDaily, wantOK: true},
		{value: "week", want: models.PeriodWeekly, wantOK: true},
		{value: "monthly", want: models.PeriodMonthly, wantOK: true},
		{value: "yearly", wantOK: false},
		{value: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scans/history/x", nil)
			req.SetPathValue("period", tt.value)
			rec := httptest.NewRecorder()

			got, ok := ParsePeriod(rec, req, zap.NewNop())

			if ok != tt.wantOK {
				t.Fatalf("ParsePeriod(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %q, want %q", tt.value, got, tt.want)
			}
			if !ok && rec.Code != http.StatusBadRequest {
				t.Errorf("ParsePeriod(%q) status = %d, want 400", tt.value, rec.Code)
			}
		})
	}
}

func TestDecodeBody_TooLarge(t *testing.T) {
	body := `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var dest CreateProjectRequest
	if decodeBody(rec, req, &dest, zap.NewNop()) {
		t.Fatal("decodeBody() = true for oversized body")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
