package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/equity-research/internal/model"
)

func TestResearchStage_Run(t *testing.T) {
	news := new(mockNewswireClient)
	news.On("Articles", mock.Anything, "AAPL", 10).Return(testArticles(), nil)

	stage := NewResearchStage(news, 10)
	rc := model.NewContext("AAPL")

	require.NoError(t, stage.Run(context.Background(), "AAPL", rc))

	section := rc.Research()
	require.NotNil(t, section)
	assert.Len(t, section.Articles, 3)
	assert.Equal(t, 3, section.Sentiment.Analyzed)
	assert.Contains(t, section.Summary, "AAPL")
	assert.Contains(t, section.Summary, section.Sentiment.Label)
	news.AssertExpectations(t)
}

func TestResearchStage_Run_ProviderError(t *testing.T) {
	news := new(mockNewswireClient)
	news.On("Articles", mock.Anything, "AAPL", 10).Return(nil, eris.New("rate limited"))

	stage := NewResearchStage(news, 10)
	rc := model.NewContext("AAPL")

	err := stage.Run(context.Background(), "AAPL", rc)
	require.Error(t, err)
	assert.Nil(t, rc.Research())
}

func TestNewResearchStage_DefaultLimit(t *testing.T) {
	news := new(mockNewswireClient)
	news.On("Articles", mock.Anything, "AAPL", defaultNewsLimit).Return(testArticles(), nil)

	stage := NewResearchStage(news, 0)
	require.NoError(t, stage.Run(context.Background(), "AAPL", model.NewContext("AAPL")))
	news.AssertExpectations(t)
}

func TestResearchSummary_TrendingTopics(t *testing.T) {
	s := model.SentimentSummary{Score: 0.2, Label: "positive", Analyzed: 5, Positive: 3, Neutral: 1, Negative: 1}
	trending := []model.TrendingTopic{{Topic: "earnings", Mentions: 3}, {Topic: "guidance", Mentions: 2}}

	out := researchSummary("AAPL", s, trending)
	assert.Contains(t, out, "5 recent headlines")
	assert.Contains(t, out, "positive")
	assert.Contains(t, out, "earnings, guidance")
}
