package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/domain"
	"github.com/recaplab/recap-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubJobStore implements store.BatchJobStore with function fields; nil
// fields answer with empty results so handlers under test only wire what
// they exercise.
type stubJobStore struct {
	CreateFunc       func(ctx context.Context, job *domain.BatchJob) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.BatchJob, error)
	FindOpenFunc     func(ctx context.Context, jobType domain.BatchJobType, week, year int) (*domain.BatchJob, error)
	ListByStatusFunc func(ctx context.Context, statuses ...domain.BatchJobStatus) ([]*domain.BatchJob, error)
	ListRecentFunc   func(ctx context.Context, limit int) ([]*domain.BatchJob, error)
}

func (s *stubJobStore) Create(ctx context.Context, job *domain.BatchJob) error {
	if s.CreateFunc != nil {
		return s.CreateFunc(ctx, job)
	}
	return nil
}

func (s *stubJobStore) GetByID(ctx context.Context, id string) (*domain.BatchJob, error) {
	if s.GetByIDFunc != nil {
		return s.GetByIDFunc(ctx, id)
	}
	return nil, store.ErrBatchJobNotFound
}

func (s *stubJobStore) FindOpen(ctx context.Context, jobType domain.BatchJobType, week, year int) (*domain.BatchJob, error) {
	if s.FindOpenFunc != nil {
		return s.FindOpenFunc(ctx, jobType, week, year)
	}
	return nil, store.ErrBatchJobNotFound
}

func (s *stubJobStore) ListByStatus(ctx context.Context, statuses ...domain.BatchJobStatus) ([]*domain.BatchJob, error) {
	if s.ListByStatusFunc != nil {
		return s.ListByStatusFunc(ctx, statuses...)
	}
	return nil, nil
}

func (s *stubJobStore) ListRecent(ctx context.Context, limit int) ([]*domain.BatchJob, error) {
	if s.ListRecentFunc != nil {
		return s.ListRecentFunc(ctx, limit)
	}
	return nil, nil
}

func (s *stubJobStore) UpdateStatus(ctx context.Context, id string, status domain.BatchJobStatus, outputFileID, errorFileID string) error {
	return nil
}

func (s *stubJobStore) Complete(ctx context.Context, id string, successCount, errorCount int, itemErrors []domain.ItemError) error {
	return nil
}

func (s *stubJobStore) Fail(ctx context.Context, id string, status domain.BatchJobStatus, reason string) error {
	return nil
}

func (s *stubJobStore) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.BatchJob, error) {
	return nil, nil
}

func (s *stubJobStore) Delete(ctx context.Context, id string) error {
	return nil
}

var _ store.BatchJobStore = (*stubJobStore)(nil)

// stubWeeklyStore implements store.WeeklyDataStore over fixed fixtures.
type stubWeeklyStore struct {
	users []*domain.User
	data  map[uuid.UUID]*domain.WeeklyData
}

func (s *stubWeeklyStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubWeeklyStore) GetWeeklyData(ctx context.Context, userID uuid.UUID, year, week int) (*domain.WeeklyData, error) {
	if data, ok := s.data[userID]; ok {
		return data, nil
	}
	return nil, store.ErrUserNotFound
}

var _ store.WeeklyDataStore = (*stubWeeklyStore)(nil)

// stubSummaryStore implements store.SummaryStore over an in-memory map.
type stubSummaryStore struct {
	docs map[string]*domain.WeeklySummary
}

func newStubSummaryStore() *stubSummaryStore {
	return &stubSummaryStore{docs: make(map[string]*domain.WeeklySummary)}
}

func (s *stubSummaryStore) Upsert(ctx context.Context, summary *domain.WeeklySummary) error {
	s.docs[domain.FormatCustomID(summary.UserID, summary.Year, summary.Week)] = summary
	return nil
}

func (s *stubSummaryStore) GetByKey(ctx context.Context, userID uuid.UUID, year, week int) (*domain.WeeklySummary, error) {
	if doc, ok := s.docs[domain.FormatCustomID(userID, year, week)]; ok {
		return doc, nil
	}
	return nil, store.ErrSummaryNotFound
}

var _ store.SummaryStore = (*stubSummaryStore)(nil)

// stubProvider implements batch.Provider with function fields.
type stubProvider struct {
	SubmitBatchFunc     func(ctx context.Context, requests []batch.Request) (string, error)
	CheckStatusFunc     func(ctx context.Context, batchID string) (*batch.StatusSnapshot, error)
	DownloadResultsFunc func(ctx context.Context, fileID string) ([]batch.ItemResult, error)
}

func (p *stubProvider) SubmitBatch(ctx context.Context, requests []batch.Request) (string, error) {
	if p.SubmitBatchFunc != nil {
		return p.SubmitBatchFunc(ctx, requests)
	}
	return "batches/stub", nil
}

func (p *stubProvider) CheckStatus(ctx context.Context, batchID string) (*batch.StatusSnapshot, error) {
	if p.CheckStatusFunc != nil {
		return p.CheckStatusFunc(ctx, batchID)
	}
	return &batch.StatusSnapshot{BatchID: batchID, State: batch.StateInProgress}, nil
}

func (p *stubProvider) DownloadResults(ctx context.Context, fileID string) ([]batch.ItemResult, error) {
	if p.DownloadResultsFunc != nil {
		return p.DownloadResultsFunc(ctx, fileID)
	}
	return nil, batch.ErrOutputUnavailable
}

var _ batch.Provider = (*stubProvider)(nil)
