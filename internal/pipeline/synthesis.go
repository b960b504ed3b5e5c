package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/pkg/anthropic"
)

const (
	defaultSynthesisModel     = "claude-sonnet-4-5"
	defaultSynthesisMaxTokens = 1024
)

const synthesisSystemPrompt = `You are an equity research analyst. Write a concise narrative assessment of a stock based on the structured research and market data provided. Cover recent news sentiment, price action, valuation and risk. Be factual and measured; do not give investment advice. Respond with 2-4 paragraphs of plain prose.`

// SynthesisStage condenses the research and analysis sections into a
// readable narrative via the language model.
type SynthesisStage struct {
	ai        anthropic.Client
	model     string
	maxTokens int64
}

// NewSynthesisStage creates the synthesis stage. Empty model or
// non-positive maxTokens fall back to defaults.
func NewSynthesisStage(ai anthropic.Client, modelName string, maxTokens int64) *SynthesisStage {
	if modelName == "" {
		modelName = defaultSynthesisModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultSynthesisMaxTokens
	}
	return &SynthesisStage{ai: ai, model: modelName, maxTokens: maxTokens}
}

func (s *SynthesisStage) Name() string { return model.StageSynthesis }

func (s *SynthesisStage) Run(ctx context.Context, ticker string, rc *model.Context) error {
	log := zap.L().With(zap.String("ticker", ticker), zap.String("stage", s.Name()))

	research := rc.Research()
	analysis := rc.Analysis()
	if research == nil || analysis == nil {
		return eris.New("synthesis: research and analysis sections are required")
	}

	prompt := synthesisPrompt(ticker, research, analysis)
	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    synthesisSystemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "synthesis: narrative for %s", ticker)
	}

	narrative := strings.TrimSpace(resp.Text())
	if narrative == "" {
		return eris.Errorf("synthesis: empty narrative for %s", ticker)
	}

	section := model.SynthesisSection{
		Narrative:   narrative,
		Model:       resp.Model,
		InputTokens: resp.Usage.InputTokens,
	}
	if err := rc.PutSynthesis(section); err != nil {
		return err
	}

	log.Info("synthesis: complete",
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int("narrative_len", len(narrative)),
	)
	return nil
}

func synthesisPrompt(ticker string, research *model.ResearchSection, analysis *model.AnalysisSection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ticker: %s\n", ticker)
	if analysis.Profile.Name != "" {
		fmt.Fprintf(&b, "Company: %s (%s / %s)\n", analysis.Profile.Name, analysis.Profile.Sector, analysis.Profile.Industry)
	}

	b.WriteString("\n## News research\n")
	fmt.Fprintf(&b, "%s\n", research.Summary)
	if n := len(research.Articles); n > 0 {
		b.WriteString("Recent headlines:\n")
		for i, a := range research.Articles {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.Publisher)
		}
	}

	b.WriteString("\n## Market data\n")
	fmt.Fprintf(&b, "%s\n", analysis.Commentary)
	fmt.Fprintf(&b, "Price: %.2f, previous close: %.2f, market cap: %.0f, volume: %d\n",
		analysis.Quote.Price, analysis.Quote.PreviousClose, analysis.Quote.MarketCap, analysis.Quote.Volume)
	if analysis.KPIs.DividendYield != nil {
		fmt.Fprintf(&b, "Dividend yield: %.2f%%\n", *analysis.KPIs.DividendYield*100)
	}
	if analysis.KPIs.Beta != nil {
		fmt.Fprintf(&b, "Beta: %.2f\n", *analysis.KPIs.Beta)
	}

	return b.String()
}
