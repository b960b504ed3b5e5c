// Package sentiment scores financial news headlines with a fixed lexicon.
// All functions are deterministic and side-effect-free so stage outputs are
// reproducible for a given set of articles.
package sentiment

import (
	"sort"
	"strings"

	"github.com/sells-group/equity-research/internal/model"
)

// Classification thresholds on the mean compound score.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// lexicon maps lowercase terms to valence in [-1, 1]. Weights are tuned for
// short financial headlines, not prose.
var lexicon = map[string]float64{
	"beat":          0.7,
	"beats":         0.7,
	"surge":         0.8,
	"surges":        0.8,
	"soar":          0.8,
	"soars":         0.8,
	"rally":         0.6,
	"record":        0.5,
	"growth":        0.5,
	"profit":        0.5,
	"gain":          0.5,
	"gains":         0.5,
	"upgrade":       0.7,
	"upgraded":      0.7,
	"outperform":    0.6,
	"strong":        0.4,
	"buy":           0.3,
	"bullish":       0.6,
	"jump":          0.5,
	"jumps":         0.5,
	"rise":          0.4,
	"rises":         0.4,
	"expand":        0.3,
	"expands":       0.3,
	"breakthrough":  0.6,
	"miss":          -0.7,
	"misses":        -0.7,
	"plunge":        -0.8,
	"plunges":       -0.8,
	"fall":          -0.4,
	"falls":         -0.4,
	"drop":          -0.5,
	"drops":         -0.5,
	"decline":       -0.5,
	"declines":      -0.5,
	"loss":          -0.5,
	"losses":        -0.5,
	"downgrade":     -0.7,
	"downgraded":    -0.7,
	"underperform":  -0.6,
	"weak":          -0.4,
	"sell":          -0.3,
	"bearish":       -0.6,
	"lawsuit":       -0.6,
	"probe":         -0.5,
	"investigation": -0.5,
	"recall":        -0.6,
	"layoff":        -0.6,
	"layoffs":       -0.6,
	"bankruptcy":    -0.9,
	"fraud":         -0.9,
	"warning":       -0.5,
	"cut":           -0.4,
	"cuts":          -0.4,
	"slump":         -0.7,
	"tumble":        -0.7,
	"tumbles":       -0.7,
}

// negators flip the sign of the following sentiment-bearing word.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
}

// ScoreHeadline computes a compound sentiment score in [-1, 1] for one
// headline. A headline with no lexicon hits scores 0.
func ScoreHeadline(headline string) float64 {
	words := tokenize(headline)

	var sum float64
	var hits int
	for i, w := range words {
		v, ok := lexicon[w]
		if !ok {
			continue
		}
		if i > 0 && negators[words[i-1]] {
			v = -v
		}
		sum += v
		hits++
	}
	if hits == 0 {
		return 0
	}

	score := sum / float64(hits)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

// Summarize scores every article headline and aggregates the results.
func Summarize(articles []model.Article) model.SentimentSummary {
	summary := model.SentimentSummary{Label: "neutral"}

	var sum float64
	for _, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		s := ScoreHeadline(a.Title)
		sum += s
		summary.Analyzed++

		switch {
		case s >= positiveThreshold:
			summary.Positive++
		case s <= negativeThreshold:
			summary.Negative++
		default:
			summary.Neutral++
		}
	}

	if summary.Analyzed == 0 {
		return summary
	}

	summary.Score = sum / float64(summary.Analyzed)
	switch {
	case summary.Score >= positiveThreshold:
		summary.Label = "positive"
	case summary.Score <= negativeThreshold:
		summary.Label = "negative"
	}
	return summary
}

// trendingKeywords are the financial themes counted across headlines.
var trendingKeywords = []string{
	"earnings", "revenue", "profit", "growth", "decline",
	"stock", "shares", "market", "investor", "ceo", "merger",
	"acquisition", "launch", "product", "sales", "dividend",
	"guidance", "forecast", "buyback",
}

// Trending extracts recurring financial themes from article headlines,
// most-mentioned first, capped at limit.
func Trending(articles []model.Article, limit int) []model.TrendingTopic {
	var all strings.Builder
	for _, a := range articles {
		all.WriteString(strings.ToLower(a.Title))
		all.WriteByte(' ')
	}
	text := all.String()

	var topics []model.TrendingTopic
	for _, kw := range trendingKeywords {
		if n := strings.Count(text, kw); n > 0 {
			topics = append(topics, model.TrendingTopic{Topic: kw, Mentions: n})
		}
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Mentions > topics[j].Mentions
	})
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}
