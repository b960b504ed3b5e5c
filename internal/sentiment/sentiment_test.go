package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/equity-research/internal/model"
)

func TestScoreHeadline(t *testing.T) {
	tests := []struct {
		name     string
		headline string
		check    func(t *testing.T, score float64)
	}{
		{
			name:     "positive",
			headline: "Acme beats earnings expectations, shares surge",
			check: func(t *testing.T, s float64) {
				assert.Greater(t, s, 0.0)
			},
		},
		{
			name:     "negative",
			headline: "Acme shares plunge after earnings miss",
			check: func(t *testing.T, s float64) {
				assert.Less(t, s, 0.0)
			},
		},
		{
			name:     "no lexicon hits",
			headline: "Acme schedules annual shareholder meeting",
			check: func(t *testing.T, s float64) {
				assert.Zero(t, s)
			},
		},
		{
			name:     "negation flips valence",
			headline: "Quarterly results not weak, analysts say",
			check: func(t *testing.T, s float64) {
				assert.Greater(t, s, 0.0)
			},
		},
		{
			name:     "bounded",
			headline: "surge surge surge surge surge",
			check: func(t *testing.T, s float64) {
				assert.LessOrEqual(t, s, 1.0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ScoreHeadline(tt.headline))
		})
	}
}

func TestScoreHeadline_Deterministic(t *testing.T) {
	headline := "Stock rallies on strong growth and record profit"
	first := ScoreHeadline(headline)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ScoreHeadline(headline))
	}
}

func TestSummarize(t *testing.T) {
	articles := []model.Article{
		{Title: "Shares surge on record profit"},
		{Title: "Analysts see strong growth ahead"},
		{Title: "Company announces annual meeting"},
		{Title: "Stock drops after guidance cut"},
		{Title: ""}, // skipped
	}

	s := Summarize(articles)
	assert.Equal(t, 4, s.Analyzed)
	assert.Equal(t, 2, s.Positive)
	assert.Equal(t, 1, s.Neutral)
	assert.Equal(t, 1, s.Negative)
	assert.Equal(t, "positive", s.Label)
	assert.Greater(t, s.Score, 0.0)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, "neutral", s.Label)
	assert.Zero(t, s.Score)
	assert.Zero(t, s.Analyzed)
}

func TestTrending(t *testing.T) {
	articles := []model.Article{
		{Title: "Earnings preview: revenue growth expected"},
		{Title: "Record earnings send shares higher"},
		{Title: "CEO discusses earnings and product launch"},
	}

	topics := Trending(articles, 5)
	assert.NotEmpty(t, topics)
	assert.Equal(t, "earnings", topics[0].Topic)
	assert.Equal(t, 3, topics[0].Mentions)
	assert.LessOrEqual(t, len(topics), 5)

	// Sorted by mentions, descending.
	for i := 1; i < len(topics); i++ {
		assert.GreaterOrEqual(t, topics[i-1].Mentions, topics[i].Mentions)
	}
}
