package pipeline

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/equity-research/internal/model"
)

// AssembleReport builds the final report from a fully populated context.
// Every stage section must be present; a missing section means the run did
// not actually complete and assembly refuses to paper over it.
func AssembleReport(jobID, ticker string, rc *model.Context) (*model.Report, error) {
	research := rc.Research()
	analysis := rc.Analysis()
	synthesis := rc.Synthesis()

	switch {
	case research == nil:
		return nil, eris.New("assemble: missing research section")
	case analysis == nil:
		return nil, eris.New("assemble: missing analysis section")
	case synthesis == nil:
		return nil, eris.New("assemble: missing synthesis section")
	}

	return &model.Report{
		JobID:  jobID,
		Ticker: ticker,
		Sections: model.ReportSections{
			Research:  research,
			Analysis:  analysis,
			Synthesis: synthesis,
		},
		Narrative: synthesis.Narrative,
		CreatedAt: time.Now().UTC(),
	}, nil
}
