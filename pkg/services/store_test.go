package services

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codenexus/codenexus-engine/pkg/apperrors"
	"github.com/codenexus/codenexus-engine/pkg/database"
	"github.com/codenexus/codenexus-engine/pkg/models"
	"github.com/codenexus/codenexus-engine/pkg/repositories"
)

// ============================================================================
// In-memory repositories shared by the service tests
// ============================================================================

type memStore struct {
	mu         sync.Mutex
	now        time.Time
	seq        int64
	projects   []*models.Project
	scans      []*models.Scan
	detections []*models.Detection
	refactors  []*models.Refactor
	data       []*models.RefactoringData
	logs       []*models.ActivityLog
	graphs     map[uuid.UUID]*models.DependencyGraph
	files      map[uuid.UUID]map[string]*models.ProjectFileData

	listProjectsErr error
	latestScanErr   error
}

func newMemStore() *memStore {
	return &memStore{
		now:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		graphs: make(map[uuid.UUID]*models.DependencyGraph),
		files:  make(map[uuid.UUID]map[string]*models.ProjectFileData),
	}
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *memStore) project(id uuid.UUID) *models.Project {
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// addProject inserts a project directly.
func (s *memStore) addProject(title string) *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Project{ID: uuid.New(), Title: title, CreatedAt: s.tick(), MemberIDs: []uuid.UUID{}, Files: []string{}, ScanIDs: []uuid.UUID{}}
	s.projects = append(s.projects, p)
	return p
}

// addScan inserts a scan with the given start time and detection payloads.
func (s *memStore) addScan(projectID uuid.UUID, startedAt time.Time, payloads ...string) *models.Scan {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	scan := &models.Scan{
		ID:        uuid.New(),
		ProjectID: projectID,
		Seq:       s.seq,
		ScanType:  models.ScanTypeAutomatic,
		ScanName:  models.DefaultScanName,
		StartedAt: startedAt,
	}
	s.scans = append(s.scans, scan)
	for _, p := range payloads {
		s.detections = append(s.detections, &models.Detection{ID: uuid.New(), ScanID: scan.ID, Payload: []byte(p)})
	}
	return scan
}

func copyScan(scan *models.Scan) *models.Scan {
	c := *scan
	return &c
}

// --- projects ---

type memProjectRepo struct{ s *memStore }

var _ repositories.ProjectRepository = (*memProjectRepo)(nil)

func (r *memProjectRepo) Create(ctx context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project.ID = uuid.New()
	project.CreatedAt = r.s.tick()
	project.UpdatedAt = project.CreatedAt
	project.MemberIDs = []uuid.UUID{}
	if project.OwnerID != nil {
		project.MemberIDs = append(project.MemberIDs, *project.OwnerID)
	}
	project.Files = []string{}
	r.s.projects = append(r.s.projects, project)
	return nil
}

func (r *memProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.project(id)
	if p == nil {
		return nil, apperrors.ErrNotFound
	}
	c := *p
	c.Files = append([]string{}, p.Files...)
	c.MemberIDs = append([]uuid.UUID{}, p.MemberIDs...)
	return &c, nil
}

func (r *memProjectRepo) GetByTitle(ctx context.Context, title string) (*models.Project, int, error) {
	r.s.mu.Lock()
	var found *models.Project
	matches := 0
	for _, p := range r.s.projects {
		if p.Title != title {
			continue
		}
		matches++
		if found == nil {
			found = p
		}
	}
	r.s.mu.Unlock()
	if found == nil {
		return nil, 0, apperrors.ErrNotFound
	}
	p, err := r.Get(ctx, found.ID)
	return p, matches, err
}

func (r *memProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.listProjectsErr != nil {
		return nil, r.s.listProjectsErr
	}
	return append([]*models.Project{}, r.s.projects...), nil
}

func (r *memProjectRepo) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.project(id) == nil {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *memProjectRepo) ListFiles(ctx context.Context, id uuid.UUID) ([]string, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Files, nil
}

func (r *memProjectRepo) AddFile(ctx context.Context, id uuid.UUID, fileName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.project(id)
	if p == nil {
		return apperrors.ErrNotFound
	}
	if !p.HasFile(fileName) {
		p.Files = append(p.Files, fileName)
	}
	return nil
}

func (r *memProjectRepo) RemoveFile(ctx context.Context, id uuid.UUID, fileName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.project(id)
	if p == nil {
		return apperrors.ErrNotFound
	}
	for i, f := range p.Files {
		if f == fileName {
			p.Files = append(p.Files[:i], p.Files[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *memProjectRepo) AddMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.project(id)
	if p == nil {
		return apperrors.ErrNotFound
	}
	for _, m := range p.MemberIDs {
		if m == userID {
			return apperrors.ErrConflict
		}
	}
	p.MemberIDs = append(p.MemberIDs, userID)
	return nil
}

func (r *memProjectRepo) RemoveMember(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.project(id)
	if p == nil {
		return apperrors.ErrNotFound
	}
	for i, m := range p.MemberIDs {
		if m == userID {
			p.MemberIDs = append(p.MemberIDs[:i], p.MemberIDs[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// --- scans ---

type memScanRepo struct{ s *memStore }

var _ repositories.ScanRepository = (*memScanRepo)(nil)

func (r *memScanRepo) Create(ctx context.Context, scan *models.Scan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	scan.ID = uuid.New()
	scan.Seq = r.s.seq
	if scan.StartedAt.IsZero() {
		scan.StartedAt = r.s.tick()
	}
	scan.CreatedAt = scan.StartedAt
	r.s.scans = append(r.s.scans, copyScan(scan))
	return nil
}

func (r *memScanRepo) Get(ctx context.Context, id uuid.UUID) (*models.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, scan := range r.s.scans {
		if scan.ID == id {
			return copyScan(scan), nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memScanRepo) latest(projectID uuid.UUID, keep func(*models.Scan) bool) *models.Scan {
	var latest *models.Scan
	for _, scan := range r.s.scans {
		if scan.ProjectID != projectID || !keep(scan) {
			continue
		}
		if scan.Later(latest) {
			latest = scan
		}
	}
	return latest
}

func (r *memScanRepo) GetLatestByProject(ctx context.Context, projectID uuid.UUID) (*models.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.latestScanErr != nil {
		return nil, r.s.latestScanErr
	}
	latest := r.latest(projectID, func(*models.Scan) bool { return true })
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return copyScan(latest), nil
}

func (r *memScanRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Scan
	for _, scan := range r.s.scans {
		if scan.ProjectID == projectID {
			out = append(out, copyScan(scan))
		}
	}
	return out, nil
}

func (r *memScanRepo) ListAll(ctx context.Context) ([]*models.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Scan, 0, len(r.s.scans))
	for _, scan := range r.s.scans {
		out = append(out, copyScan(scan))
	}
	return out, nil
}

func (r *memScanRepo) latestPerProject(keep func(*models.Scan) bool) []*models.Scan {
	var out []*models.Scan
	for _, p := range r.s.projects {
		if latest := r.latest(p.ID, keep); latest != nil {
			out = append(out, copyScan(latest))
		}
	}
	return out
}

func (r *memScanRepo) ListLatestPerProject(ctx context.Context) ([]*models.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.latestPerProject(func(*models.Scan) bool { return true }), nil
}

func (r *memScanRepo) ListLatestInWindow(ctx context.Context, since, until time.Time) ([]*models.Scan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.latestPerProject(func(scan *models.Scan) bool {
		return !scan.StartedAt.Before(since) && !scan.StartedAt.After(until)
	}), nil
}

func (r *memScanRepo) UpdateTotal(ctx context.Context, id uuid.UUID, total int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, scan := range r.s.scans {
		if scan.ID == id {
			scan.TotalIssuesDetected = total
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *memScanRepo) StatsByProject(ctx context.Context) (map[uuid.UUID]*models.ScanStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scanProject := make(map[uuid.UUID]uuid.UUID)
	stats := make(map[uuid.UUID]*models.ScanStats)
	for _, scan := range r.s.scans {
		scanProject[scan.ID] = scan.ProjectID
		st, ok := stats[scan.ProjectID]
		if !ok {
			st = &models.ScanStats{ProjectID: scan.ProjectID}
			stats[scan.ProjectID] = st
		}
		st.TotalScans++
	}
	for _, ref := range r.s.refactors {
		stats[scanProject[ref.ScanID]].TotalRefactors++
	}
	return stats, nil
}

// --- detections ---

type memDetectionRepo struct{ s *memStore }

var _ repositories.DetectionRepository = (*memDetectionRepo)(nil)

func (r *memDetectionRepo) Create(ctx context.Context, detection *models.Detection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	detection.ID = uuid.New()
	detection.CreatedAt = r.s.now
	r.s.detections = append(r.s.detections, detection)
	return nil
}

func (r *memDetectionRepo) ListByScan(ctx context.Context, scanID uuid.UUID) ([]*models.Detection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Detection, 0)
	for _, d := range r.s.detections {
		if d.ScanID == scanID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDetectionRepo) ListByScans(ctx context.Context, scanIDs []uuid.UUID) (map[uuid.UUID][]*models.Detection, error) {
	out := make(map[uuid.UUID][]*models.Detection)
	for _, id := range scanIDs {
		dets, _ := r.ListByScan(ctx, id)
		if len(dets) > 0 {
			out[id] = dets
		}
	}
	return out, nil
}

// --- refactors ---

type memRefactorRepo struct {
	s           *memStore
	createCalls int
}

var _ repositories.RefactorRepository = (*memRefactorRepo)(nil)

func (r *memRefactorRepo) CreateData(ctx context.Context, data *models.RefactoringData) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.createCalls++
	data.ID = uuid.New()
	r.s.data = append(r.s.data, data)
	return nil
}

func (r *memRefactorRepo) Create(ctx context.Context, refactor *models.Refactor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.createCalls++
	refactor.ID = uuid.New()
	r.s.refactors = append(r.s.refactors, refactor)
	return nil
}

func (r *memRefactorRepo) ListByScan(ctx context.Context, scanID uuid.UUID) ([]*models.Refactor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Refactor
	for _, ref := range r.s.refactors {
		if ref.ScanID == scanID {
			out = append(out, ref)
		}
	}
	return out, nil
}

// --- activity logs ---

type memActivityLogRepo struct{ s *memStore }

var _ repositories.ActivityLogRepository = (*memActivityLogRepo)(nil)

func (r *memActivityLogRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = r.s.tick()
	r.s.logs = append(r.s.logs, entry)
	return nil
}

func (r *memActivityLogRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ActivityLog, error) {
	all, _ := r.ListAll(ctx)
	out := make([]*models.ActivityLog, 0)
	for _, l := range all {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memActivityLogRepo) ListAll(ctx context.Context) ([]*models.ActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]*models.ActivityLog{}, r.s.logs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memActivityLogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.logs {
		if l.ID == id {
			r.s.logs = append(r.s.logs[:i], r.s.logs[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// --- dependency graphs ---

type memGraphRepo struct{ s *memStore }

var _ repositories.DependencyGraphRepository = (*memGraphRepo)(nil)

func (r *memGraphRepo) Upsert(ctx context.Context, graph *models.DependencyGraph) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.graphs[graph.ProjectID]; ok {
		graph.ID = existing.ID
		graph.CreatedAt = existing.CreatedAt
	} else {
		graph.ID = uuid.New()
		graph.CreatedAt = r.s.now
	}
	graph.UpdatedAt = r.s.tick()
	c := *graph
	r.s.graphs[graph.ProjectID] = &c
	return nil
}

func (r *memGraphRepo) GetByProject(ctx context.Context, projectID uuid.UUID) (*models.DependencyGraph, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.graphs[projectID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (r *memGraphRepo) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.graphs[projectID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.graphs, projectID)
	return nil
}

// --- file data ---

type memFileDataRepo struct{ s *memStore }

var _ repositories.FileDataRepository = (*memFileDataRepo)(nil)

func (r *memFileDataRepo) Upsert(ctx context.Context, file *models.ProjectFileData) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	files, ok := r.s.files[file.ProjectID]
	if !ok {
		files = make(map[string]*models.ProjectFileData)
		r.s.files[file.ProjectID] = files
	}
	file.UpdatedAt = r.s.tick()
	c := *file
	files[file.FileName] = &c
	return nil
}

func (r *memFileDataRepo) Get(ctx context.Context, projectID uuid.UUID, fileName string) (*models.ProjectFileData, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[projectID][fileName]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *f
	return &c, nil
}

func (r *memFileDataRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectFileData, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ProjectFileData, 0)
	for _, f := range r.s.files[projectID] {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (r *memFileDataRepo) Delete(ctx context.Context, projectID uuid.UUID, fileName string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.files[projectID][fileName]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.files[projectID], fileName)
	return nil
}

// ============================================================================
// Transactor and cache fakes
// ============================================================================

// fakeTransactor runs fn directly. It fails with err when set.
type fakeTransactor struct {
	calls int
	err   error
}

var _ database.Transactor = (*fakeTransactor)(nil)

func (f *fakeTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

// memReportCache stores values as-is, keyed by name.
type memReportCache struct {
	mu          sync.Mutex
	values      map[string]any
	generation  int64
	gets        int
	invalidated []string
	getErr      error
}

func newMemReportCache() *memReportCache {
	return &memReportCache{values: make(map[string]any)}
}

func (c *memReportCache) Generation(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *memReportCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || !reflect.TypeOf(v).AssignableTo(target.Elem().Type()) {
		return false, errors.New("unsupported cache destination")
	}
	target.Elem().Set(reflect.ValueOf(v))
	return true, nil
}

func (c *memReportCache) Set(ctx context.Context, gen int64, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil
	}
	c.values[key] = value
	return nil
}

func (c *memReportCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for _, k := range keys {
		delete(c.values, k)
		c.invalidated = append(c.invalidated, k)
	}
	return nil
}

// passthroughScope hands back the parent context unchanged.
func passthroughScope(ctx context.Context) (context.Context, func(), error) {
	return ctx, func() {}, nil
}
