// Package store persists analysis jobs and reports. It is the single source
// of truth for status queries: all job mutation after creation flows through
// UpdateJob's atomic read-modify-write so a progress update from the pipeline
// driver can never be lost against a concurrent read.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/equity-research/internal/model"
)

// ErrNotFound indicates the requested job or report does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrTerminalJob indicates an attempt to mutate a completed or failed job.
var ErrTerminalJob = eris.New("store: job is terminal")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Ticker string          `json:"ticker,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for jobs and reports.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, ticker string) (*model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	// UpdateJob applies mutate to the job under an atomic read-modify-write.
	// Mutation of a terminal job is rejected, as are status regressions and
	// progress decreases. The updated job is returned.
	UpdateJob(ctx context.Context, id string, mutate func(*model.Job) error) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	// Reports
	SaveReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, jobID string) (*model.Report, error)
	ListReports(ctx context.Context, limit int) ([]model.Report, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// applyMutation runs mutate against job and enforces the lifecycle
// invariants shared by every driver: terminal jobs are immutable, status
// moves forward only, and progress never decreases.
func applyMutation(job *model.Job, mutate func(*model.Job) error) error {
	if job.Status.Terminal() {
		return eris.Wrapf(ErrTerminalJob, "job %s", job.ID)
	}

	prevStatus := job.Status
	prevProgress := job.Progress

	if err := mutate(job); err != nil {
		return err
	}

	if job.Status != prevStatus && !prevStatus.CanTransition(job.Status) {
		return eris.Errorf("store: illegal status transition %s -> %s for job %s",
			prevStatus, job.Status, job.ID)
	}
	if job.Progress < prevProgress {
		return eris.Errorf("store: progress regression %.2f -> %.2f for job %s",
			prevProgress, job.Progress, job.ID)
	}
	return nil
}
