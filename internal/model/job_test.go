package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"simple", "AAPL", "AAPL", true},
		{"lowercase", "tsla", "TSLA", true},
		{"whitespace", "  msft ", "MSFT", true},
		{"class suffix dot", "brk.b", "BRK.B", true},
		{"class suffix dash", "BF-B", "BF-B", true},
		{"single letter", "F", "F", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"digits", "AAPL1", "", false},
		{"too long", "ABCDEFG", "", false},
		{"embedded space", "AA PL", "", false},
		{"punctuation only", ".", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTicker(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobStatus_CanTransition(t *testing.T) {
	assert.True(t, JobStatusPending.CanTransition(JobStatusProcessing))
	assert.True(t, JobStatusPending.CanTransition(JobStatusFailed))
	assert.True(t, JobStatusProcessing.CanTransition(JobStatusCompleted))
	assert.True(t, JobStatusProcessing.CanTransition(JobStatusFailed))

	// No regressions or self-loops.
	assert.False(t, JobStatusPending.CanTransition(JobStatusPending))
	assert.False(t, JobStatusPending.CanTransition(JobStatusCompleted))
	assert.False(t, JobStatusProcessing.CanTransition(JobStatusPending))
	assert.False(t, JobStatusCompleted.CanTransition(JobStatusProcessing))
	assert.False(t, JobStatusCompleted.CanTransition(JobStatusFailed))
	assert.False(t, JobStatusFailed.CanTransition(JobStatusCompleted))
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}
