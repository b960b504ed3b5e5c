package model

import "time"

// ReportSections holds the finalized context contents, keyed by stage.
type ReportSections struct {
	Research  *ResearchSection  `json:"research"`
	Analysis  *AnalysisSection  `json:"analysis"`
	Synthesis *SynthesisSection `json:"synthesis"`
}

// Report is the persisted, finalized output of a completed job. Created once,
// immutable thereafter.
type Report struct {
	JobID     string         `json:"job_id"`
	Ticker    string         `json:"ticker"`
	Sections  ReportSections `json:"sections"`
	Narrative string         `json:"narrative"`
	CreatedAt time.Time      `json:"created_at"`
}
