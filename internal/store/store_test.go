package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/equity-research/internal/model"
)

func newTestMemory(t *testing.T) Store {
	t.Helper()
	s := NewMemory()
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, newTestMemory)
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetJob", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "AAPL")
		require.NoError(t, err)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "AAPL", job.Ticker)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Zero(t, job.Progress)
		assert.Nil(t, job.CompletedAt)

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, "AAPL", got.Ticker)
		assert.Equal(t, model.JobStatusPending, got.Status)
	})

	t.Run("GetJob_NotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetJob(context.Background(), "no-such-job")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrNotFound))
	})

	t.Run("UpdateJob_Progression", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "MSFT")
		require.NoError(t, err)

		updated, err := s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			j.CurrentStage = model.StageResearch
			j.Progress = 0.4
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusProcessing, updated.Status)
		assert.Equal(t, model.StageResearch, updated.CurrentStage)
		assert.InDelta(t, 0.4, updated.Progress, 1e-9)

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusProcessing, got.Status)
		assert.InDelta(t, 0.4, got.Progress, 1e-9)
	})

	t.Run("UpdateJob_Complete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "NVDA")
		require.NoError(t, err)

		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			return nil
		})
		require.NoError(t, err)

		now := time.Now().UTC()
		updated, err := s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusCompleted
			j.Progress = 1.0
			j.CompletedAt = &now
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, updated.Status)
		require.NotNil(t, updated.CompletedAt)

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CompletedAt)
		assert.WithinDuration(t, now, *got.CompletedAt, time.Second)
	})

	t.Run("UpdateJob_TerminalRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "TSLA")
		require.NoError(t, err)

		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			return nil
		})
		require.NoError(t, err)
		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusFailed
			j.Error = "provider timeout"
			return nil
		})
		require.NoError(t, err)

		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			return nil
		})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrTerminalJob))

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, got.Status)
		assert.Equal(t, "provider timeout", got.Error)
	})

	t.Run("UpdateJob_InvalidTransition", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "AMZN")
		require.NoError(t, err)

		// pending cannot jump straight back to pending from processing;
		// completed requires passing through processing first.
		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusCompleted
			return nil
		})
		require.Error(t, err)
	})

	t.Run("UpdateJob_ProgressRegressionRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "GOOG")
		require.NoError(t, err)

		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			j.Progress = 0.7
			return nil
		})
		require.NoError(t, err)

		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Progress = 0.4
			return nil
		})
		require.Error(t, err)

		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, got.Progress, 1e-9)
	})

	t.Run("UpdateJob_NotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.UpdateJob(context.Background(), "missing", func(j *model.Job) error {
			j.Progress = 0.5
			return nil
		})
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrNotFound))
	})

	t.Run("UpdateJob_MutatorError", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "META")
		require.NoError(t, err)

		boom := eris.New("mutator failed")
		_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
			j.Progress = 0.9
			return boom
		})
		require.Error(t, err)
		assert.True(t, eris.Is(err, boom))

		// Mutator failure must not leak partial writes.
		got, err := s.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Progress)
	})

	t.Run("ListJobs_FilterAndOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.CreateJob(ctx, "AAPL")
		require.NoError(t, err)
		b, err := s.CreateJob(ctx, "MSFT")
		require.NoError(t, err)
		_, err = s.UpdateJob(ctx, b.ID, func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			return nil
		})
		require.NoError(t, err)

		all, err := s.ListJobs(ctx, JobFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)

		pending, err := s.ListJobs(ctx, JobFilter{Status: model.JobStatusPending})
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, a.ID, pending[0].ID)

		byTicker, err := s.ListJobs(ctx, JobFilter{Ticker: "MSFT"})
		require.NoError(t, err)
		require.Len(t, byTicker, 1)
		assert.Equal(t, b.ID, byTicker[0].ID)

		limited, err := s.ListJobs(ctx, JobFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("SaveAndGetReport", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		job, err := s.CreateJob(ctx, "AAPL")
		require.NoError(t, err)

		report := &model.Report{
			JobID:  job.ID,
			Ticker: "AAPL",
			Sections: model.ReportSections{
				Research: &model.ResearchSection{Summary: "coverage is positive"},
			},
			Narrative: "Apple remains a strong performer.",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.SaveReport(ctx, report))

		got, err := s.GetReport(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.JobID)
		assert.Equal(t, "AAPL", got.Ticker)
		require.NotNil(t, got.Sections.Research)
		assert.Equal(t, "coverage is positive", got.Sections.Research.Summary)
		assert.Equal(t, report.Narrative, got.Narrative)
	})

	t.Run("GetReport_NotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetReport(context.Background(), "no-such-job")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrNotFound))
	})

	t.Run("ListReports", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, ticker := range []string{"AAPL", "MSFT", "NVDA"} {
			job, err := s.CreateJob(ctx, ticker)
			require.NoError(t, err)
			require.NoError(t, s.SaveReport(ctx, &model.Report{
				JobID:     job.ID,
				Ticker:    ticker,
				CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
			}))
		}

		reports, err := s.ListReports(ctx, 0)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		// Newest first.
		assert.Equal(t, "NVDA", reports[0].Ticker)

		limited, err := s.ListReports(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "AAPL")
	require.NoError(t, err)
	_, err = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
		j.Status = model.JobStatusProcessing
		return nil
	})
	require.NoError(t, err)

	// Concurrent monotonic progress writes must all survive the
	// read-modify-write cycle without losing the maximum.
	var wg sync.WaitGroup
	steps := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	for _, p := range steps {
		wg.Add(1)
		go func(p float64) {
			defer wg.Done()
			_, _ = s.UpdateJob(ctx, job.ID, func(j *model.Job) error {
				if p > j.Progress {
					j.Progress = p
				}
				return nil
			})
		}(p)
	}
	wg.Wait()

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Progress, 1e-9)
}

func TestSQLiteStore_ConcurrentUpdates(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	// Many jobs advancing their lifecycle at once must all reach completed:
	// no write may fail on the transaction's read-to-write lock upgrade.
	const workers = 64
	ids := make([]string, workers)
	for i := range ids {
		job, err := s.CreateJob(ctx, "AAPL")
		require.NoError(t, err)
		ids[i] = job.ID
	}

	steps := []func(*model.Job) error{
		func(j *model.Job) error {
			j.Status = model.JobStatusProcessing
			j.CurrentStage = model.StageResearch
			return nil
		},
		func(j *model.Job) error {
			j.Progress = 0.4
			j.CurrentStage = model.StageAnalysis
			return nil
		},
		func(j *model.Job) error {
			j.Progress = 0.7
			j.CurrentStage = model.StageSynthesis
			return nil
		},
		func(j *model.Job) error {
			now := time.Now().UTC()
			j.Status = model.JobStatusCompleted
			j.Progress = 1.0
			j.CompletedAt = &now
			return nil
		},
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for _, step := range steps {
				if _, err := s.UpdateJob(ctx, id, step); err != nil {
					errs <- err
					return
				}
			}
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	for _, id := range ids {
		job, err := s.GetJob(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.InDelta(t, 1.0, job.Progress, 1e-9)
	}
}

func TestMemoryStore_GetJobReturnsCopy(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	ctx := context.Background()

	job, err := s.CreateJob(ctx, "AAPL")
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	got.Progress = 0.9

	again, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Progress)
}
