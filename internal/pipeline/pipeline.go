// Package pipeline runs the staged analysis for a single ticker: research,
// analysis and synthesis execute in order, each contributing one section to a
// shared context, with job progress checkpointed after every stage.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/store"
)

// Checkpoints maps a stage name to the cumulative job progress reported once
// that stage completes.
type Checkpoints map[string]float64

// DefaultCheckpoints returns the standard progress schedule.
func DefaultCheckpoints() Checkpoints {
	return Checkpoints{
		model.StageResearch:  0.4,
		model.StageAnalysis:  0.7,
		model.StageSynthesis: 1.0,
	}
}

// Pipeline executes the stage sequence for submitted jobs and records
// lifecycle transitions in the store.
type Pipeline struct {
	store       store.Store
	stages      []Stage
	checkpoints Checkpoints
}

// New assembles a pipeline. The checkpoint schedule must cover every stage,
// be strictly increasing in stage order, and end at exactly 1.0.
func New(st store.Store, checkpoints Checkpoints, stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, eris.New("pipeline: at least one stage is required")
	}
	if checkpoints == nil {
		checkpoints = DefaultCheckpoints()
	}

	prev := 0.0
	for _, stage := range stages {
		cp, ok := checkpoints[stage.Name()]
		if !ok {
			return nil, eris.Errorf("pipeline: no checkpoint for stage %q", stage.Name())
		}
		if cp <= prev || cp > 1.0 {
			return nil, eris.Errorf("pipeline: checkpoint for stage %q must be in (%.2f, 1.0], got %.2f", stage.Name(), prev, cp)
		}
		prev = cp
	}
	if prev != 1.0 {
		return nil, eris.Errorf("pipeline: final stage checkpoint must be 1.0, got %.2f", prev)
	}

	return &Pipeline{store: st, stages: stages, checkpoints: checkpoints}, nil
}

// Run executes all stages for the job. The job must be pending. On success
// the assembled report is persisted and the job is marked completed; on the
// first stage failure the job is marked failed and no report is written.
func (p *Pipeline) Run(ctx context.Context, jobID, ticker string) (err error) {
	log := zap.L().With(zap.String("job_id", jobID), zap.String("ticker", ticker))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: panic during run", zap.Any("panic", r), zap.Stack("stack"))
			err = eris.Errorf("pipeline: panic: %v", r)
			// The panic value may carry internals; callers see a generic message.
			p.fail(ctx, jobID, "internal error")
		}
	}()

	rc := model.NewContext(ticker)
	start := time.Now()
	log.Info("pipeline: starting run", zap.Int("stages", len(p.stages)))

	if _, err := p.store.UpdateJob(ctx, jobID, func(j *model.Job) error {
		j.Status = model.JobStatusProcessing
		j.CurrentStage = p.stages[0].Name()
		return nil
	}); err != nil {
		p.fail(ctx, jobID, "internal error")
		return eris.Wrapf(err, "pipeline: mark job %s processing", jobID)
	}

	for _, stage := range p.stages {
		name := stage.Name()
		if _, err := p.store.UpdateJob(ctx, jobID, func(j *model.Job) error {
			j.CurrentStage = name
			return nil
		}); err != nil {
			p.fail(ctx, jobID, "internal error")
			return eris.Wrapf(err, "pipeline: enter stage %s", name)
		}

		stageStart := time.Now()
		if err := stage.Run(ctx, ticker, rc); err != nil {
			log.Error("pipeline: stage failed",
				zap.String("stage", name),
				zap.Duration("elapsed", time.Since(stageStart)),
				zap.Error(err),
			)
			p.fail(ctx, jobID, err.Error())
			return err
		}

		checkpoint := p.checkpoints[name]
		if _, err := p.store.UpdateJob(ctx, jobID, func(j *model.Job) error {
			if checkpoint > j.Progress {
				j.Progress = checkpoint
			}
			return nil
		}); err != nil {
			p.fail(ctx, jobID, "internal error")
			return eris.Wrapf(err, "pipeline: checkpoint stage %s", name)
		}

		log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Float64("progress", checkpoint),
			zap.Duration("elapsed", time.Since(stageStart)),
		)
	}

	report, err := AssembleReport(jobID, ticker, rc)
	if err != nil {
		p.fail(ctx, jobID, err.Error())
		return err
	}
	if err := p.store.SaveReport(ctx, report); err != nil {
		p.fail(ctx, jobID, "failed to persist report")
		return eris.Wrapf(err, "pipeline: save report for job %s", jobID)
	}

	now := time.Now().UTC()
	if _, err := p.store.UpdateJob(ctx, jobID, func(j *model.Job) error {
		j.Status = model.JobStatusCompleted
		j.Progress = 1.0
		j.CompletedAt = &now
		return nil
	}); err != nil {
		p.fail(ctx, jobID, "internal error")
		return eris.Wrapf(err, "pipeline: mark job %s completed", jobID)
	}

	log.Info("pipeline: run complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// fail moves the job to its terminal failed state. Errors here are logged
// and swallowed: the original stage error is what the caller needs to see.
func (p *Pipeline) fail(ctx context.Context, jobID, msg string) {
	now := time.Now().UTC()
	if _, err := p.store.UpdateJob(ctx, jobID, func(j *model.Job) error {
		j.Status = model.JobStatusFailed
		j.Error = msg
		j.CompletedAt = &now
		return nil
	}); err != nil {
		zap.L().Error("pipeline: failed to mark job failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
}
