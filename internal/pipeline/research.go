package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/sentiment"
	"github.com/sells-group/equity-research/pkg/newswire"
)

const defaultNewsLimit = 20

// ResearchStage gathers recent headlines for the ticker and derives headline
// sentiment and trending topics from them.
type ResearchStage struct {
	news      newswire.Client
	newsLimit int
}

// NewResearchStage creates the research stage. limit <= 0 uses the default
// headline count.
func NewResearchStage(news newswire.Client, limit int) *ResearchStage {
	if limit <= 0 {
		limit = defaultNewsLimit
	}
	return &ResearchStage{news: news, newsLimit: limit}
}

func (s *ResearchStage) Name() string { return model.StageResearch }

func (s *ResearchStage) Run(ctx context.Context, ticker string, rc *model.Context) error {
	log := zap.L().With(zap.String("ticker", ticker), zap.String("stage", s.Name()))

	raw, err := s.news.Articles(ctx, ticker, s.newsLimit)
	if err != nil && !eris.Is(err, newswire.ErrNoArticles) {
		return eris.Wrapf(err, "research: fetch articles for %s", ticker)
	}
	if eris.Is(err, newswire.ErrNoArticles) {
		log.Warn("research: no recent articles, proceeding with neutral sentiment")
	}

	articles := make([]model.Article, 0, len(raw))
	for _, a := range raw {
		articles = append(articles, model.Article{
			Title:       a.Title,
			Publisher:   a.Publisher,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}

	summary := sentiment.Summarize(articles)
	trending := sentiment.Trending(articles, 5)

	section := model.ResearchSection{
		Articles:  articles,
		Sentiment: summary,
		Trending:  trending,
		Summary:   researchSummary(ticker, summary, trending),
	}
	if err := rc.PutResearch(section); err != nil {
		return err
	}

	log.Info("research: complete",
		zap.Int("articles", len(articles)),
		zap.String("sentiment", summary.Label),
		zap.Float64("score", summary.Score),
	)
	return nil
}

func researchSummary(ticker string, s model.SentimentSummary, trending []model.TrendingTopic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d recent headlines for %s. ", s.Analyzed, ticker)
	fmt.Fprintf(&b, "Overall sentiment is %s (score %.2f; %d positive, %d neutral, %d negative).",
		s.Label, s.Score, s.Positive, s.Neutral, s.Negative)
	if len(trending) > 0 {
		topics := make([]string, len(trending))
		for i, t := range trending {
			topics[i] = t.Topic
		}
		fmt.Fprintf(&b, " Trending topics: %s.", strings.Join(topics, ", "))
	}
	return b.String()
}
