package pipeline

import (
	"context"

	"github.com/sells-group/equity-research/internal/model"
)

// Stage is one sequential step of an analysis run. A stage reads earlier
// sections from the shared context and appends exactly one section of its own.
type Stage interface {
	// Name identifies the stage in job records and logs.
	Name() string

	// Run executes the stage for ticker, writing its section into rc.
	// A returned error aborts the remainder of the run.
	Run(ctx context.Context, ticker string, rc *model.Context) error
}
