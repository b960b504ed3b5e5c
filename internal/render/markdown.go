// Package render turns finished reports into downloadable documents.
package render

import (
	"fmt"
	"strings"

	"github.com/sells-group/equity-research/internal/model"
)

// Markdown generates the downloadable document for a finished report.
func Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Equity Research Report: %s\n", report.Ticker)
	fmt.Fprintf(&b, "Generated: %s\n", report.CreatedAt.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "Job: %s\n\n", report.JobID)

	if analysis := report.Sections.Analysis; analysis != nil {
		if analysis.Profile.Name != "" {
			fmt.Fprintf(&b, "**%s**", analysis.Profile.Name)
			if analysis.Profile.Exchange != "" {
				fmt.Fprintf(&b, " (%s)", analysis.Profile.Exchange)
			}
			b.WriteString("\n")
			if analysis.Profile.Sector != "" {
				fmt.Fprintf(&b, "%s / %s\n", analysis.Profile.Sector, analysis.Profile.Industry)
			}
			b.WriteString("\n")
		}

		b.WriteString("## Market Snapshot\n")
		fmt.Fprintf(&b, "- Price: %.2f\n", analysis.Quote.Price)
		if analysis.Quote.PreviousClose > 0 {
			change := (analysis.Quote.Price - analysis.Quote.PreviousClose) / analysis.Quote.PreviousClose * 100
			fmt.Fprintf(&b, "- Change vs previous close: %+.2f%%\n", change)
		}
		fmt.Fprintf(&b, "- Market cap: %s\n", formatCap(analysis.Quote.MarketCap))
		fmt.Fprintf(&b, "- Volume: %d\n\n", analysis.Quote.Volume)

		b.WriteString("## Key Indicators\n")
		fmt.Fprintf(&b, "- Annualized volatility: %.1f%%\n", analysis.KPIs.Volatility*100)
		fmt.Fprintf(&b, "- 1-year return: %+.1f%%\n", analysis.KPIs.ROI1Y)
		fmt.Fprintf(&b, "- 52-week range: %.2f - %.2f\n", analysis.KPIs.Low52W, analysis.KPIs.High52W)
		if analysis.KPIs.PERatio != nil {
			fmt.Fprintf(&b, "- P/E ratio: %.1f\n", *analysis.KPIs.PERatio)
		}
		if analysis.KPIs.PriceToBook != nil {
			fmt.Fprintf(&b, "- Price/book: %.1f\n", *analysis.KPIs.PriceToBook)
		}
		if analysis.KPIs.DividendYield != nil {
			fmt.Fprintf(&b, "- Dividend yield: %.2f%%\n", *analysis.KPIs.DividendYield*100)
		}
		if analysis.KPIs.Beta != nil {
			fmt.Fprintf(&b, "- Beta: %.2f\n", *analysis.KPIs.Beta)
		}
		b.WriteString("\n")
	}

	if research := report.Sections.Research; research != nil {
		b.WriteString("## News Sentiment\n")
		s := research.Sentiment
		fmt.Fprintf(&b, "Overall: %s (score %.2f across %d headlines; %d positive, %d neutral, %d negative)\n\n",
			s.Label, s.Score, s.Analyzed, s.Positive, s.Neutral, s.Negative)

		if len(research.Trending) > 0 {
			b.WriteString("Trending topics:\n")
			for _, topic := range research.Trending {
				fmt.Fprintf(&b, "- %s (%d mentions)\n", topic.Topic, topic.Mentions)
			}
			b.WriteString("\n")
		}

		if len(research.Articles) > 0 {
			b.WriteString("Recent headlines:\n")
			for i, a := range research.Articles {
				if i >= 10 {
					break
				}
				fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.Publisher)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Assessment\n")
	b.WriteString(strings.TrimSpace(report.Narrative))
	b.WriteString("\n")

	return b.String()
}

// formatCap renders a market cap in trillions, billions or millions.
func formatCap(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v > 0:
		return fmt.Sprintf("%.0f", v)
	default:
		return "n/a"
	}
}
