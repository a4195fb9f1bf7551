package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/events"
	"github.com/recaplab/recap-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// mockJobStore is an in-memory BatchJobStore honoring the same transition
// guards as the Postgres implementation. Function fields override
// individual operations for failure injection.
type mockJobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.BatchJob

	CreateFunc       func(ctx context.Context, job *domain.BatchJob) error
	UpdateStatusFunc func(ctx context.Context, id string, status domain.BatchJobStatus, outputFileID, errorFileID string) error
	CompleteFunc     func(ctx context.Context, id string, successCount, errorCount int, itemErrors []domain.ItemError) error

	// failDelete forces Delete to fail for specific job IDs.
	failDelete map[string]error

	updateStatusCalls int
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[string]*domain.BatchJob)}
}

func (s *mockJobStore) put(job *domain.BatchJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
}

func (s *mockJobStore) get(id string) *domain.BatchJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		clone := *job
		return &clone
	}
	return nil
}

func (s *mockJobStore) Create(ctx context.Context, job *domain.BatchJob) error {
	if s.CreateFunc != nil {
		return s.CreateFunc(ctx, job)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return store.ErrDuplicate
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *mockJobStore) GetByID(ctx context.Context, id string) (*domain.BatchJob, error) {
	job := s.get(id)
	if job == nil {
		return nil, store.ErrBatchJobNotFound
	}
	return job, nil
}

func (s *mockJobStore) FindOpen(ctx context.Context, jobType domain.BatchJobType, week, year int) (*domain.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.Type == jobType && job.Week == week && job.Year == year && !job.IsTerminal() {
			clone := *job
			return &clone, nil
		}
	}
	return nil, store.ErrBatchJobNotFound
}

func (s *mockJobStore) ListByStatus(ctx context.Context, statuses ...domain.BatchJobStatus) ([]*domain.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.BatchJob
	for _, job := range s.jobs {
		for _, status := range statuses {
			if job.Status == status {
				clone := *job
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (s *mockJobStore) ListRecent(ctx context.Context, limit int) ([]*domain.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.BatchJob
	for _, job := range s.jobs {
		clone := *job
		out = append(out, &clone)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *mockJobStore) UpdateStatus(ctx context.Context, id string, status domain.BatchJobStatus, outputFileID, errorFileID string) error {
	if s.UpdateStatusFunc != nil {
		return s.UpdateStatusFunc(ctx, id, status, outputFileID, errorFileID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStatusCalls++
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrBatchJobNotFound
	}
	if job.IsTerminal() {
		return store.ErrStaleTransition
	}
	job.Status = status
	if outputFileID != "" {
		job.OutputFileID = outputFileID
	}
	if errorFileID != "" {
		job.ErrorFileID = errorFileID
	}
	return nil
}

func (s *mockJobStore) Complete(ctx context.Context, id string, successCount, errorCount int, itemErrors []domain.ItemError) error {
	if s.CompleteFunc != nil {
		return s.CompleteFunc(ctx, id, successCount, errorCount, itemErrors)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrBatchJobNotFound
	}
	if job.IsTerminal() {
		return store.ErrStaleTransition
	}
	now := time.Now().UTC()
	job.Status = domain.BatchJobStatusCompleted
	job.SuccessCount = successCount
	job.ErrorCount = errorCount
	job.Errors = itemErrors
	job.CompletedAt = &now
	return nil
}

func (s *mockJobStore) Fail(ctx context.Context, id string, status domain.BatchJobStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrBatchJobNotFound
	}
	if job.IsTerminal() {
		return store.ErrStaleTransition
	}
	now := time.Now().UTC()
	job.Status = status
	job.Errors = []domain.ItemError{{Error: reason}}
	job.CompletedAt = &now
	return nil
}

func (s *mockJobStore) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.BatchJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.BatchJob
	for _, job := range s.jobs {
		if job.IsTerminal() && job.ReferenceTime().Before(cutoff) {
			clone := *job
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *mockJobStore) Delete(ctx context.Context, id string) error {
	if err, ok := s.failDelete[id]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return store.ErrBatchJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

var _ store.BatchJobStore = (*mockJobStore)(nil)

// mockWeeklyStore serves canned users and weekly data.
type mockWeeklyStore struct {
	users []*domain.User
	data  map[uuid.UUID]*domain.WeeklyData
	errs  map[uuid.UUID]error
}

func newMockWeeklyStore() *mockWeeklyStore {
	return &mockWeeklyStore{
		data: make(map[uuid.UUID]*domain.WeeklyData),
		errs: make(map[uuid.UUID]error),
	}
}

func (s *mockWeeklyStore) addUser(completedTitles []string, incomplete int, created time.Time) uuid.UUID {
	id := uuid.New()
	s.users = append(s.users, &domain.User{ID: id, Email: id.String() + "@example.com", CreatedAt: created})
	data := &domain.WeeklyData{
		UserID:          id,
		IncompleteCount: incomplete,
		AccountCreated:  created,
	}
	for _, title := range completedTitles {
		completedAt := created.Add(24 * time.Hour)
		data.CompletedTodos = append(data.CompletedTodos, domain.TodoSnapshot{
			ID:          uuid.New(),
			Title:       title,
			CompletedAt: &completedAt,
		})
	}
	s.data[id] = data
	return id
}

func (s *mockWeeklyStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *mockWeeklyStore) GetWeeklyData(ctx context.Context, userID uuid.UUID, year, week int) (*domain.WeeklyData, error) {
	if err, ok := s.errs[userID]; ok {
		return nil, err
	}
	data, ok := s.data[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return data, nil
}

var _ store.WeeklyDataStore = (*mockWeeklyStore)(nil)

// mockSummaryStore keeps documents keyed by their customId.
type mockSummaryStore struct {
	mu        sync.Mutex
	docs      map[string]*domain.WeeklySummary
	UpsertErr error
}

func newMockSummaryStore() *mockSummaryStore {
	return &mockSummaryStore{docs: make(map[string]*domain.WeeklySummary)}
}

func (s *mockSummaryStore) Upsert(ctx context.Context, summary *domain.WeeklySummary) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *summary
	s.docs[summary.Key()] = &clone
	return nil
}

func (s *mockSummaryStore) GetByKey(ctx context.Context, userID uuid.UUID, year, week int) (*domain.WeeklySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[domain.FormatCustomID(userID, year, week)]; ok {
		clone := *doc
		return &clone, nil
	}
	return nil, store.ErrSummaryNotFound
}

func (s *mockSummaryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

var _ store.SummaryStore = (*mockSummaryStore)(nil)

// mockProvider is a batch.Provider with function fields for each call and
// a record of submitted requests.
type mockProvider struct {
	SubmitBatchFunc     func(ctx context.Context, requests []batch.Request) (string, error)
	CheckStatusFunc     func(ctx context.Context, batchID string) (*batch.StatusSnapshot, error)
	DownloadResultsFunc func(ctx context.Context, fileID string) ([]batch.ItemResult, error)

	mu        sync.Mutex
	submitted [][]batch.Request
}

func (p *mockProvider) SubmitBatch(ctx context.Context, requests []batch.Request) (string, error) {
	p.mu.Lock()
	p.submitted = append(p.submitted, requests)
	p.mu.Unlock()
	if p.SubmitBatchFunc != nil {
		return p.SubmitBatchFunc(ctx, requests)
	}
	return "batches/test", nil
}

func (p *mockProvider) CheckStatus(ctx context.Context, batchID string) (*batch.StatusSnapshot, error) {
	if p.CheckStatusFunc != nil {
		return p.CheckStatusFunc(ctx, batchID)
	}
	return &batch.StatusSnapshot{BatchID: batchID, State: batch.StateInProgress}, nil
}

func (p *mockProvider) DownloadResults(ctx context.Context, fileID string) ([]batch.ItemResult, error) {
	if p.DownloadResultsFunc != nil {
		return p.DownloadResultsFunc(ctx, fileID)
	}
	return nil, batch.ErrOutputUnavailable
}

func (p *mockProvider) lastSubmitted() []batch.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.submitted) == 0 {
		return nil
	}
	return p.submitted[len(p.submitted)-1]
}

var _ batch.Provider = (*mockProvider)(nil)

// captureEmitter records emitted reports.
type captureEmitter struct {
	mu      sync.Mutex
	reports []*events.BatchReport
}

func (e *captureEmitter) EmitReport(ctx context.Context, report *events.BatchReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reports = append(e.reports, report)
	return nil
}

func (e *captureEmitter) all() []*events.BatchReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*events.BatchReport, len(e.reports))
	copy(out, e.reports)
	return out
}

var _ events.ReportEmitter = (*captureEmitter)(nil)
