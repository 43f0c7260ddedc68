package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/services"
)

func TestFileDataHandler_Update(t *testing.T) {
	svc := &mockFileDataService{update: &services.FileDataUpdate{
		UpdatedFiles: []string{"a.py", "b.py"},
		AddedFiles:   []string{"b.py"},
	}}
	mux := newTestMux(t, NewFileDataHandler(svc, zap.NewNop()))

	rec := serve(mux, http.MethodPost, "/api/file-data",
		`{"title":"billing","fileData":{"a.py":{"code":"x = 1"},"b.py":{"code":"y = 2"}}}`, "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var got services.FileDataUpdate
	decodeAPIResponse(t, rec, &got)
	assert.Equal(t, []string{"b.py"}, got.AddedFiles)
}

func TestFileDataHandler_NestedFileName(t *testing.T) {
	svc := &mockFileDataService{file: &services.ProjectFile{
		FileName: "src/pkg/a.py",
		FileData: models.FileContent{Code: "print(1)"},
	}}
	mux := newTestMux(t, NewFileDataHandler(svc, zap.NewNop()))
	base := "/api/projects/" + uuid.NewString() + "/file-data/"

	rec := serve(mux, http.MethodGet, base+"src/pkg/a.py", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "src/pkg/a.py", svc.gotFileName)

	var got services.ProjectFile
	decodeAPIResponse(t, rec, &got)
	assert.Equal(t, "print(1)", got.FileData.Code)

	rec = serve(mux, http.MethodDelete, base+"src/pkg/a.py", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "src/pkg/a.py", svc.gotFileName)
}

func TestFileDataHandler_MissingFile(t *testing.T) {
	svc := &mockFileDataService{err: apperrors.ErrNotFound}
	mux := newTestMux(t, NewFileDataHandler(svc, zap.NewNop()))

	rec := serve(mux, http.MethodGet, "/api/projects/"+uuid.NewString()+"/file-data/gone.py", "", "user-1")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFileDataHandler_ASTAvailability(t *testing.T) {
	svc := &mockFileDataService{availability: &services.ASTAvailability{
		Available:     true,
		TotalFiles:    2,
		PythonFiles:   []string{"a.py"},
		FilesWithCode: []string{"a.py"},
	}}
	mux := newTestMux(t, NewFileDataHandler(svc, zap.NewNop()))

	rec := serve(mux, http.MethodGet, "/api/projects/"+uuid.NewString()+"/file-data-ast", "", "user-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var got services.ASTAvailability
	decodeAPIResponse(t, rec, &got)
	assert.True(t, got.Available)
	assert.Equal(t, 2, got.TotalFiles)
}
