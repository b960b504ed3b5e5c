package model

import (
	"regexp"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of an analysis job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal jobs are never mutated.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. The only legal path is pending → processing → {completed|failed}.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Job is one ticker's end-to-end analysis request and its lifecycle state.
type Job struct {
	ID           string     `json:"id"`
	Ticker       string     `json:"ticker"`
	Status       JobStatus  `json:"status"`
	Progress     float64    `json:"progress"`
	CurrentStage string     `json:"current_stage,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// tickerPattern matches 1-6 uppercase letters with an optional class suffix
// (e.g. BRK.B, BF-B).
var tickerPattern = regexp.MustCompile(`^[A-Z]{1,6}([.-][A-Z]{1,2})?$`)

// NormalizeTicker trims and uppercases a raw ticker symbol. It returns the
// normalized symbol and whether it is well-formed.
func NormalizeTicker(raw string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerPattern.MatchString(t) {
		return "", false
	}
	return t, true
}
