package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/equity-research/internal/model"
)

// MemoryStore implements Store with an in-process map. It is the default
// driver for development and tests; state does not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*model.Job
	reports map[string]*model.Report
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*model.Job),
		reports: make(map[string]*model.Report),
	}
}

func (s *MemoryStore) CreateJob(ctx context.Context, ticker string) (*model.Job, error) {
	job := &model.Job{
		ID:        uuid.New().String(),
		Ticker:    ticker,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	out := *job
	return &out, nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "job %s", id)
	}
	out := *job
	return &out, nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, id string, mutate func(*model.Job) error) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "job %s", id)
	}

	// Mutate a copy so a failed mutation leaves the stored job untouched.
	updated := *job
	if err := applyMutation(&updated, mutate); err != nil {
		return nil, err
	}
	s.jobs[id] = &updated

	out := updated
	return &out, nil
}

func (s *MemoryStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []model.Job
	for _, j := range s.jobs {
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.Ticker != "" && j.Ticker != filter.Ticker {
			continue
		}
		jobs = append(jobs, *j)
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(jobs) {
			return nil, nil
		}
		jobs = jobs[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (s *MemoryStore) SaveReport(ctx context.Context, report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *report
	s.reports[report.JobID] = &out
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, jobID string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[jobID]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "report for job %s", jobID)
	}
	out := *r
	return &out, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, limit int) ([]model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []model.Report
	for _, r := range s.reports {
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, k int) bool {
		return reports[i].CreatedAt.After(reports[k].CreatedAt)
	})

	if limit <= 0 {
		limit = 50
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
