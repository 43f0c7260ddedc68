package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/database"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
)

// FileDataService stores source snapshots and ASTs of project files.
type FileDataService interface {
	// Update upserts every file in files for the project with the given title
	// and adds new names to the project's file list.
	Update(ctx context.Context, projectTitle string, files map[string]models.FileContent) (*FileDataUpdate, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) (*ProjectFiles, error)
	// GetFile returns a file listed in the project that has code stored.
	GetFile(ctx context.Context, projectID uuid.UUID, fileName string) (*ProjectFile, error)
	DeleteFile(ctx context.Context, projectID uuid.UUID, fileName string) error
	ASTAvailability(ctx context.Context, projectID uuid.UUID) (*ASTAvailability, error)
}

// FileDataUpdate is the outcome of FileDataService.Update.
type FileDataUpdate struct {
	ProjectID    uuid.UUID `json:"project_id"`
	UpdatedFiles []string  `json:"updated_files"`
	AddedFiles   []string  `json:"added_files"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProjectFiles lists the stored files of a project.
type ProjectFiles struct {
	ProjectID    uuid.UUID                 `json:"project_id"`
	ProjectTitle string                    `json:"project_title"`
	Files        []*models.ProjectFileData `json:"files"`
}

// ProjectFile is a single stored file.
type ProjectFile struct {
	ProjectTitle string             `json:"project_title"`
	FileName     string             `json:"file_name"`
	FileData     models.FileContent `json:"file_data"`
}

// ASTAvailability reports whether a project has code to build ASTs from.
type ASTAvailability struct {
	Available     bool     `json:"available"`
	ProjectTitle  string   `json:"project_title"`
	TotalFiles    int      `json:"total_files"`
	PythonFiles   []string `json:"python_files"`
	FilesWithCode []string `json:"files_with_code"`
}

type fileDataService struct {
	projectRepo  repositories.ProjectRepository
	fileDataRepo repositories.FileDataRepository
	tx           database.Transactor
	logger       *zap.Logger
}

// NewFileDataService creates a new FileDataService.
func NewFileDataService(
	projectRepo repositories.ProjectRepository,
	fileDataRepo repositories.FileDataRepository,
	tx database.Transactor,
	logger *zap.Logger,
) FileDataService {
	return &fileDataService{
		projectRepo:  projectRepo,
		fileDataRepo: fileDataRepo,
		tx:           tx,
		logger:       logger.Named("file-data-service"),
	}
}

var _ FileDataService = (*fileDataService)(nil)

func (s *fileDataService) Update(ctx context.Context, projectTitle string, files map[string]models.FileContent) (*FileDataUpdate, error) {
	projectTitle = strings.TrimSpace(projectTitle)
	if projectTitle == "" {
		return nil, fmt.Errorf("%w: project title is required", apperrors.ErrValidation)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: file data must be a non-empty object", apperrors.ErrValidation)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: file names must not be empty", apperrors.ErrValidation)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	project, err := lookupProjectByTitle(ctx, s.projectRepo, projectTitle, s.logger)
	if err != nil {
		return nil, err
	}

	result := &FileDataUpdate{
		ProjectID:    project.ID,
		UpdatedFiles: names,
		AddedFiles:   []string{},
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.projectRepo.LockForUpdate(ctx, project.ID); err != nil {
			return err
		}
		for _, name := range names {
			file := &models.ProjectFileData{
				ProjectID:   project.ID,
				FileName:    name,
				FileContent: files[name],
			}
			if err := s.fileDataRepo.Upsert(ctx, file); err != nil {
				return err
			}
			if file.UpdatedAt.After(result.UpdatedAt) {
				result.UpdatedAt = file.UpdatedAt
			}

			if project.HasFile(name) {
				continue
			}
			if err := s.projectRepo.AddFile(ctx, project.ID, name); err != nil {
				return err
			}
			result.AddedFiles = append(result.AddedFiles, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated project file data",
		zap.String("project_id", project.ID.String()),
		zap.Int("updated", len(result.UpdatedFiles)),
		zap.Int("added", len(result.AddedFiles)))
	return result, nil
}

func (s *fileDataService) ListByProject(ctx context.Context, projectID uuid.UUID) (*ProjectFiles, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	files, err := s.fileDataRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectFiles{ProjectID: project.ID, ProjectTitle: project.Title, Files: files}, nil
}

func (s *fileDataService) GetFile(ctx context.Context, projectID uuid.UUID, fileName string) (*ProjectFile, error) {
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", apperrors.ErrValidation)
	}

	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasFile(fileName) {
		return nil, fmt.Errorf("file %q not in project %q: %w", fileName, project.Title, apperrors.ErrNotFound)
	}

	file, err := s.fileDataRepo.Get(ctx, projectID, fileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(file.Code) == "" {
		return nil, fmt.Errorf("file %q has no code: %w", fileName, apperrors.ErrNotFound)
	}

	return &ProjectFile{
		ProjectTitle: project.Title,
		FileName:     fileName,
		FileData:     file.FileContent,
	}, nil
}

func (s *fileDataService) DeleteFile(ctx context.Context, projectID uuid.UUID, fileName string) error {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.HasFile(fileName) {
		return fmt.Errorf("file %q not in project %q: %w", fileName, project.Title, apperrors.ErrNotFound)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		// a listed file may never have had data uploaded
		if err := s.fileDataRepo.Delete(ctx, projectID, fileName); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return s.projectRepo.RemoveFile(ctx, projectID, fileName)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deleted project file",
		zap.String("project_id", projectID.String()),
		zap.String("file_name", fileName))
	return nil
}

func (s *fileDataService) ASTAvailability(ctx context.Context, projectID uuid.UUID) (*ASTAvailability, error) {
	project, err := s.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	files, err := s.fileDataRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	result := &ASTAvailability{
		ProjectTitle:  project.Title,
		TotalFiles:    len(project.Files),
		PythonFiles:   []string{},
		FilesWithCode: []string{},
	}
	for _, name := range project.Files {
		if strings.HasSuffix(name, ".py") || strings.HasSuffix(name, ".python") {
			result.PythonFiles = append(result.PythonFiles, name)
		}
	}
	for _, f := range files {
		if strings.TrimSpace(f.Code) != "" {
			result.FilesWithCode = append(result.FilesWithCode, f.FileName)
		}
	}
	result.Available = len(result.FilesWithCode) > 0
	return result, nil
}
