package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Stage names, in pipeline order. They key sections in Context and Report and
// appear in Job.CurrentStage.
const (
	StageResearch  = "research"
	StageAnalysis  = "analysis"
	StageSynthesis = "synthesis"
)

// Article is a single news item about a ticker.
type Article struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentSummary aggregates headline sentiment for a ticker.
type SentimentSummary struct {
	Score    float64 `json:"score"` // compound score in [-1, 1]
	Label    string  `json:"label"` // positive, neutral, negative
	Analyzed int     `json:"analyzed"`
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
}

// TrendingTopic is a recurring keyword across recent headlines.
type TrendingTopic struct {
	Topic    string `json:"topic"`
	Mentions int    `json:"mentions"`
}

// ResearchSection is the research stage's contribution to the context.
type ResearchSection struct {
	Articles  []Article        `json:"articles"`
	Sentiment SentimentSummary `json:"sentiment"`
	Trending  []TrendingTopic  `json:"trending"`
	Summary   string           `json:"summary"`
}

// Quote is a point-in-time market quote.
type Quote struct {
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	MarketCap     float64   `json:"market_cap"`
	Volume        int64     `json:"volume"`
	AsOf          time.Time `json:"as_of"`
}

// CompanyProfile holds descriptive company information.
type CompanyProfile struct {
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Exchange    string `json:"exchange"`
	Description string `json:"description,omitempty"`
}

// KPISet holds the computed and provider-sourced key performance indicators.
// Pointer fields are absent when the provider does not report them.
type KPISet struct {
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	PriceToBook   *float64 `json:"price_to_book,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
	Volatility    float64  `json:"volatility"`
	ROI1Y         float64  `json:"roi_1y"`
	High52W       float64  `json:"high_52w"`
	Low52W        float64  `json:"low_52w"`
}

// AnalysisSection is the analysis stage's contribution to the context.
type AnalysisSection struct {
	Quote      Quote          `json:"quote"`
	Profile    CompanyProfile `json:"profile"`
	KPIs       KPISet         `json:"kpis"`
	Commentary string         `json:"commentary"`
}

// SynthesisSection is the synthesis stage's contribution to the context.
type SynthesisSection struct {
	Narrative   string `json:"narrative"`
	Model       string `json:"model,omitempty"`
	InputTokens int64  `json:"input_tokens,omitempty"`
}

// Context is the accumulating cross-stage handoff for one job. Sections are
// write-once: a stage appends its own section and may read earlier ones, but
// can never overwrite a prior contribution. A Context is owned by a single
// pipeline execution and needs no locking.
type Context struct {
	Ticker string

	research  *ResearchSection
	analysis  *AnalysisSection
	synthesis *SynthesisSection
}

// NewContext creates an empty context for one job's pipeline execution.
func NewContext(ticker string) *Context {
	return &Context{Ticker: ticker}
}

// PutResearch appends the research section. It fails if the section was
// already written.
func (c *Context) PutResearch(s ResearchSection) error {
	if c.research != nil {
		return eris.New("context: research section already written")
	}
	c.research = &s
	return nil
}

// PutAnalysis appends the analysis section. It fails if the section was
// already written.
func (c *Context) PutAnalysis(s AnalysisSection) error {
	if c.analysis != nil {
		return eris.New("context: analysis section already written")
	}
	c.analysis = &s
	return nil
}

// PutSynthesis appends the synthesis section. It fails if the section was
// already written.
func (c *Context) PutSynthesis(s SynthesisSection) error {
	if c.synthesis != nil {
		return eris.New("context: synthesis section already written")
	}
	c.synthesis = &s
	return nil
}

// Research returns the research section, or nil if not yet written.
func (c *Context) Research() *ResearchSection { return c.research }

// Analysis returns the analysis section, or nil if not yet written.
func (c *Context) Analysis() *AnalysisSection { return c.analysis }

// Synthesis returns the synthesis section, or nil if not yet written.
func (c *Context) Synthesis() *SynthesisSection { return c.synthesis }

// SectionNames lists the populated sections in pipeline order.
func (c *Context) SectionNames() []string {
	var names []string
	if c.research != nil {
		names = append(names, StageResearch)
	}
	if c.analysis != nil {
		names = append(names, StageAnalysis)
	}
	if c.synthesis != nil {
		names = append(names, StageSynthesis)
	}
	return names
}
