package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/auth"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/services"
	"github.com/codenexus/codenexus-engine/pkg/smells"
	"github.com/codenexus/codenexus-engine/pkg/testhelpers"
)

// ============================================================================
// Mock services
// ============================================================================

type mockScanService struct {
	detection *services.DetectionResult
	refactor  *models.Refactor
	latest    *models.ScanWithDetections
	corrected int
	err       error

	gotTitle    string
	gotPayload  json.RawMessage
	gotScanType models.ScanType
	gotFilePath string
}

func (m *mockScanService) StartDetectionScan(ctx context.Context, projectTitle string, payload json.RawMessage, scanType models.ScanType, scanName string) (*services.DetectionResult, error) {
	m.gotTitle, m.gotPayload, m.gotScanType = projectTitle, payload, scanType
	return m.detection, m.err
}

func (m *mockScanService) AttachRefactor(ctx context.Context, projectTitle string, filePath string, data *models.RefactoringData) (*models.Refactor, error) {
	m.gotTitle, m.gotFilePath = projectTitle, filePath
	return m.refactor, m.err
}

func (m *mockScanService) GetLatestScan(ctx context.Context, projectID uuid.UUID) (*models.ScanWithDetections, error) {
	return m.latest, m.err
}

func (m *mockScanService) RecalculateTotals(ctx context.Context) (int, error) {
	return m.corrected, m.err
}

type mockReportService struct {
	scans        []*models.ProjectScan
	history      []*models.BucketedScan
	counts       *models.CodeSmellTypeCount
	distribution []*models.ProjectCodeSmellDistribution
	files        []smells.FileSmellEntry
	overview     *models.ProjectOverviewReport
	err          error

	gotPeriod models.Period
}

func (m *mockReportService) LatestScansInWindow(ctx context.Context, period models.Period) ([]*models.ProjectScan, error) {
	m.gotPeriod = period
	return m.scans, m.err
}

func (m *mockReportService) ScanHistoryByBucket(ctx context.Context, period models.Period) ([]*models.BucketedScan, error) {
	m.gotPeriod = period
	return m.history, m.err
}

func (m *mockReportService) CodeSmellTypeCountForProject(ctx context.Context, projectID uuid.UUID) (*models.CodeSmellTypeCount, error) {
	return m.counts, m.err
}

func (m *mockReportService) CodeSmellDistributionAcrossProjects(ctx context.Context) ([]*models.ProjectCodeSmellDistribution, error) {
	return m.distribution, m.err
}

func (m *mockReportService) FilesByCodeSmellCountForProject(ctx context.Context, projectID uuid.UUID) ([]smells.FileSmellEntry, error) {
	return m.files, m.err
}

func (m *mockReportService) ProjectOverviews(ctx context.Context) (*models.ProjectOverviewReport, error) {
	return m.overview, m.err
}

type mockProjectService struct {
	project  *models.Project
	projects []*models.Project
	err      error

	gotOwner *uuid.UUID
	gotUser  uuid.UUID
}

func (m *mockProjectService) Create(ctx context.Context, title, description string, ownerID *uuid.UUID) (*models.Project, error) {
	m.gotOwner = ownerID
	return m.project, m.err
}

func (m *mockProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return m.project, m.err
}

func (m *mockProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return m.projects, m.err
}

func (m *mockProjectService) ListFiles(ctx context.Context, id uuid.UUID) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.project.Files, nil
}

func (m *mockProjectService) AddMember(ctx context.Context, id, userID uuid.UUID) error {
	m.gotUser = userID
	return m.err
}

func (m *mockProjectService) RemoveMember(ctx context.Context, id, userID uuid.UUID) error {
	m.gotUser = userID
	return m.err
}

type mockGraphService struct {
	graph   *models.DependencyGraph
	created bool
	err     error
}

func (m *mockGraphService) CreateOrReplace(ctx context.Context, projectTitle string, graphData json.RawMessage) (*models.DependencyGraph, bool, error) {
	return m.graph, m.created, m.err
}

func (m *mockGraphService) Get(ctx context.Context, projectID uuid.UUID) (*models.DependencyGraph, error) {
	return m.graph, m.err
}

func (m *mockGraphService) Delete(ctx context.Context, projectID uuid.UUID) error {
	return m.err
}

type mockFileDataService struct {
	update       *services.FileDataUpdate
	files        *services.ProjectFiles
	file         *services.ProjectFile
	availability *services.ASTAvailability
	err          error

	gotFileName string
}

func (m *mockFileDataService) Update(ctx context.Context, projectTitle string, files map[string]models.FileContent) (*services.FileDataUpdate, error) {
	return m.update, m.err
}

func (m *mockFileDataService) ListByProject(ctx context.Context, projectID uuid.UUID) (*services.ProjectFiles, error) {
	return m.files, m.err
}

func (m *mockFileDataService) GetFile(ctx context.Context, projectID uuid.UUID, fileName string) (*services.ProjectFile, error) {
	m.gotFileName = fileName
	return m.file, m.err
}

func (m *mockFileDataService) DeleteFile(ctx context.Context, projectID uuid.UUID, fileName string) error {
	m.gotFileName = fileName
	return m.err
}

func (m *mockFileDataService) ASTAvailability(ctx context.Context, projectID uuid.UUID) (*services.ASTAvailability, error) {
	return m.availability, m.err
}

type mockActivityLogService struct {
	logs []*models.ActivityLog
	err  error
}

func (m *mockActivityLogService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ActivityLog, error) {
	return m.logs, m.err
}

func (m *mockActivityLogService) ListAll(ctx context.Context) ([]*models.ActivityLog, error) {
	return m.logs, m.err
}

func (m *mockActivityLogService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.err
}

// ============================================================================
// Helpers
// ============================================================================

// testAuthMiddleware accepts unsigned tokens, as in local development.
func testAuthMiddleware(t *testing.T) *auth.Middleware {
	t.Helper()
	jwks, err := auth.NewJWKSClient(&auth.JWKSConfig{EnableVerification: false})
	if err != nil {
		t.Fatalf("NewJWKSClient failed: %v", err)
	}
	t.Cleanup(jwks.Close)
	return auth.NewMiddleware(auth.NewAuthService(jwks, "", zap.NewNop()), zap.NewNop())
}

// routeRegistrar is implemented by every API handler.
type routeRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware)
}

func newTestMux(t *testing.T, handlers ...routeRegistrar) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	authMiddleware := testAuthMiddleware(t)
	for _, h := range handlers {
		h.RegisterRoutes(mux, authMiddleware)
	}
	return mux
}

// serve runs an authenticated request through mux as user sub.
func serve(mux *http.ServeMux, method, path, body, sub string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", testhelpers.GenerateTestJWTWithBearer(sub, "dev@example.com"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// decodeAPIResponse decodes an ApiResponse whose data is unmarshaled into data.
func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) ApiResponse {
	t.Helper()
	var raw struct {
		ApiResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return raw.ApiResponse
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

var (
	_ services.ScanService        = (*mockScanService)(nil)
	_ services.ReportService      = (*mockReportService)(nil)
	_ services.ProjectService     = (*mockProjectService)(nil)
	_ services.GraphService       = (*mockGraphService)(nil)
	_ services.FileDataService    = (*mockFileDataService)(nil)
	_ services.ActivityLogService = (*mockActivityLogService)(nil)
)

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
