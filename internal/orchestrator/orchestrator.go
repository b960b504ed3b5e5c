// Package orchestrator accepts analysis submissions, launches pipeline runs
// in the background and answers status and report queries while runs are in
// flight.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/store"
)

// Sentinel errors callers translate into their own error surface.
var (
	ErrInvalidTicker = eris.New("orchestrator: invalid ticker")
	ErrNotFound      = eris.New("orchestrator: not found")
	ErrNotReady      = eris.New("orchestrator: report not ready")
)

// Runner executes a full pipeline run for one job. *pipeline.Pipeline
// satisfies it; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, jobID, ticker string) error
}

// Orchestrator coordinates job submission and background execution.
type Orchestrator struct {
	store  store.Store
	runner Runner

	// base is the lifetime context for background runs; submissions launched
	// from short-lived request contexts must not die with the request.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// tasks tracks a done channel per in-flight job so callers can block on a
	// single run. Entries stay after completion; jobs are bounded per process.
	mu    sync.Mutex
	tasks map[string]chan struct{}
}

// New creates an orchestrator whose background runs live until Shutdown.
func New(st store.Store, runner Runner) *Orchestrator {
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:  st,
		runner: runner,
		base:   base,
		cancel: cancel,
		tasks:  make(map[string]chan struct{}),
	}
}

// Submit validates the ticker, creates the job and starts the pipeline in
// the background. It returns as soon as the job record exists; callers poll
// GetStatus for progress.
func (o *Orchestrator) Submit(ctx context.Context, rawTicker string) (*model.Job, error) {
	ticker, ok := model.NormalizeTicker(rawTicker)
	if !ok {
		return nil, eris.Wrapf(ErrInvalidTicker, "ticker %q", rawTicker)
	}

	job, err := o.store.CreateJob(ctx, ticker)
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: create job")
	}

	done := make(chan struct{})
	o.mu.Lock()
	o.tasks[job.ID] = done
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(done)
		if err := o.runner.Run(o.base, job.ID, ticker); err != nil {
			zap.L().Error("orchestrator: run failed",
				zap.String("job_id", job.ID),
				zap.String("ticker", ticker),
				zap.Error(err),
			)
		}
	}()

	zap.L().Info("orchestrator: job submitted",
		zap.String("job_id", job.ID),
		zap.String("ticker", ticker),
	)
	return job, nil
}

// GetStatus returns the current job record.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: get job")
	}
	return job, nil
}

// GetReport returns the finished report for a completed job. A job that is
// still running yields ErrNotReady; a failed job yields ErrNotReady as well
// since no report will ever exist for it.
func (o *Orchestrator) GetReport(ctx context.Context, jobID string) (*model.Report, error) {
	job, err := o.GetStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, eris.Wrapf(ErrNotReady, "job %s is %s", jobID, job.Status)
	}

	report, err := o.store.GetReport(ctx, jobID)
	if eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "report for job %s", jobID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "orchestrator: get report")
	}
	return report, nil
}

// ListJobs returns recent jobs, newest first.
func (o *Orchestrator) ListJobs(ctx context.Context, filter store.JobFilter) ([]model.Job, error) {
	jobs, err := o.store.ListJobs(ctx, filter)
	return jobs, eris.Wrap(err, "orchestrator: list jobs")
}

// ListReports returns recent reports, newest first.
func (o *Orchestrator) ListReports(ctx context.Context, limit int) ([]model.Report, error) {
	reports, err := o.store.ListReports(ctx, limit)
	return reports, eris.Wrap(err, "orchestrator: list reports")
}

// Wait blocks until all in-flight runs finish.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// WaitJob blocks until the run for jobID finishes. Returns immediately for
// job ids never submitted to this process.
func (o *Orchestrator) WaitJob(jobID string) {
	o.mu.Lock()
	done, ok := o.tasks[jobID]
	o.mu.Unlock()
	if ok {
		<-done
	}
}

// drainTimeout bounds how long Shutdown waits for in-flight runs before
// canceling them.
const drainTimeout = 30 * time.Second

// Shutdown waits for in-flight runs to finish so each job reaches a terminal
// state. Runs still going after the drain timeout are canceled.
func (o *Orchestrator) Shutdown() {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		zap.L().Warn("orchestrator: drain timeout reached, canceling in-flight runs")
	}

	o.cancel()
	o.wg.Wait()
}
