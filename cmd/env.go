package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/equity-research/internal/orchestrator"
	"github.com/sells-group/equity-research/internal/pipeline"
	"github.com/sells-group/equity-research/internal/store"
	anthropicpkg "github.com/sells-group/equity-research/pkg/anthropic"
	"github.com/sells-group/equity-research/pkg/marketdata"
	"github.com/sells-group/equity-research/pkg/newswire"
)

// env holds the initialized store, pipeline and orchestrator shared by the
// serve/analyze/jobs commands.
type env struct {
	Store        store.Store
	Pipeline     *pipeline.Pipeline
	Orchestrator *orchestrator.Orchestrator
}

// Close releases resources held by the environment.
func (e *env) Close() {
	if e.Orchestrator != nil {
		e.Orchestrator.Shutdown()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, provider clients, the pipeline and the
// orchestrator. Callers should defer env.Close().
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	newsClient := newswire.NewClient(cfg.Newswire.Key,
		newswire.WithBaseURL(cfg.Newswire.BaseURL))

	marketOpts := []marketdata.Option{marketdata.WithBaseURL(cfg.MarketData.BaseURL)}
	if cfg.MarketData.RateLimit > 0 {
		marketOpts = append(marketOpts,
			marketdata.WithRateLimit(cfg.MarketData.RateLimit, cfg.MarketData.Burst))
	}
	marketClient := marketdata.NewClient(cfg.MarketData.Key, marketOpts...)

	aiClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

	checkpoints := pipeline.Checkpoints(cfg.Pipeline.Checkpoints)
	p, err := pipeline.New(st, checkpoints,
		pipeline.NewResearchStage(newsClient, cfg.Pipeline.NewsLimit),
		pipeline.NewAnalysisStage(marketClient, cfg.Pipeline.HistoryDays),
		pipeline.NewSynthesisStage(aiClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{
		Store:        st,
		Pipeline:     p,
		Orchestrator: orchestrator.New(st, p),
	}, nil
}

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		zap.L().Info("using in-memory store; jobs will not survive a restart")
		return store.NewMemory(), nil
	case "sqlite":
		zap.L().Info("using sqlite store", zap.String("path", cfg.Store.Path))
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		zap.L().Info("using postgres store")
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
