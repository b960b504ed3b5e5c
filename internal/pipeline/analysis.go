package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/quant"
	"github.com/sells-group/equity-research/pkg/marketdata"
)

const defaultHistoryDays = 252

// AnalysisStage pulls quote, profile, price history and fundamental ratios
// for the ticker and computes the derived indicators.
type AnalysisStage struct {
	market      marketdata.Client
	historyDays int
}

// NewAnalysisStage creates the analysis stage. days <= 0 uses one trading
// year of history.
func NewAnalysisStage(market marketdata.Client, days int) *AnalysisStage {
	if days <= 0 {
		days = defaultHistoryDays
	}
	return &AnalysisStage{market: market, historyDays: days}
}

func (s *AnalysisStage) Name() string { return model.StageAnalysis }

func (s *AnalysisStage) Run(ctx context.Context, ticker string, rc *model.Context) error {
	log := zap.L().With(zap.String("ticker", ticker), zap.String("stage", s.Name()))

	var (
		quote   *marketdata.Quote
		profile *marketdata.Profile
		history *marketdata.History
		ratios  *marketdata.Ratios
	)

	// Quote and history are required; profile and ratios degrade to empty
	// values when the provider has nothing for the symbol.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quote, err = s.market.Quote(gctx, ticker)
		return eris.Wrapf(err, "analysis: quote for %s", ticker)
	})
	g.Go(func() error {
		var err error
		history, err = s.market.DailyHistory(gctx, ticker, s.historyDays)
		return eris.Wrapf(err, "analysis: history for %s", ticker)
	})
	g.Go(func() error {
		var err error
		profile, err = s.market.Profile(gctx, ticker)
		if err != nil {
			log.Warn("analysis: profile unavailable", zap.Error(err))
			profile = &marketdata.Profile{Symbol: ticker}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ratios, err = s.market.Ratios(gctx, ticker)
		if err != nil {
			log.Warn("analysis: ratios unavailable", zap.Error(err))
			ratios = &marketdata.Ratios{Symbol: ticker}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	closes := history.Closes()
	low, high := quant.Range(closes)
	kpis := model.KPISet{
		PERatio:       ratios.PERatio,
		PriceToBook:   ratios.PriceToBook,
		DividendYield: ratios.DividendYield,
		Beta:          ratios.Beta,
		Volatility:    quant.Volatility(closes),
		ROI1Y:         quant.ROI(closes),
		High52W:       high,
		Low52W:        low,
	}

	section := model.AnalysisSection{
		Quote: model.Quote{
			Price:         quote.Price,
			PreviousClose: quote.PreviousClose,
			MarketCap:     quote.MarketCap,
			Volume:        quote.Volume,
			AsOf:          quote.Timestamp,
		},
		Profile: model.CompanyProfile{
			Name:        profile.CompanyName,
			Sector:      profile.Sector,
			Industry:    profile.Industry,
			Exchange:    profile.Exchange,
			Description: profile.Description,
		},
		KPIs:       kpis,
		Commentary: analysisCommentary(ticker, quote, kpis),
	}
	if err := rc.PutAnalysis(section); err != nil {
		return err
	}

	log.Info("analysis: complete",
		zap.Float64("price", quote.Price),
		zap.Float64("volatility", kpis.Volatility),
		zap.Float64("roi_1y", kpis.ROI1Y),
	)
	return nil
}

func analysisCommentary(ticker string, quote *marketdata.Quote, kpis model.KPISet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s trades at %.2f", ticker, quote.Price)
	if quote.PreviousClose > 0 {
		change := (quote.Price - quote.PreviousClose) / quote.PreviousClose * 100
		fmt.Fprintf(&b, " (%+.2f%% vs previous close)", change)
	}
	fmt.Fprintf(&b, ". Annualized volatility is %.1f%% and one-year return is %+.1f%%.",
		kpis.Volatility*100, kpis.ROI1Y)
	fmt.Fprintf(&b, " The 52-week range spans %.2f to %.2f.", kpis.Low52W, kpis.High52W)
	if kpis.PERatio != nil {
		fmt.Fprintf(&b, " Trailing P/E is %.1f.", *kpis.PERatio)
	}
	return b.String()
}
