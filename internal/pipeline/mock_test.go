package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/equity-research/pkg/anthropic"
	"github.com/sells-group/equity-research/pkg/marketdata"
	"github.com/sells-group/equity-research/pkg/newswire"
)

// --- Newswire Mock ---

type mockNewswireClient struct {
	mock.Mock
}

func (m *mockNewswireClient) Articles(ctx context.Context, symbol string, limit int) ([]newswire.Article, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]newswire.Article), args.Error(1)
}

// --- Market Data Mock ---

type mockMarketDataClient struct {
	mock.Mock
}

func (m *mockMarketDataClient) Quote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketdata.Quote), args.Error(1)
}

func (m *mockMarketDataClient) Profile(ctx context.Context, symbol string) (*marketdata.Profile, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketdata.Profile), args.Error(1)
}

func (m *mockMarketDataClient) DailyHistory(ctx context.Context, symbol string, days int) (*marketdata.History, error) {
	args := m.Called(ctx, symbol, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketdata.History), args.Error(1)
}

func (m *mockMarketDataClient) Ratios(ctx context.Context, symbol string) (*marketdata.Ratios, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketdata.Ratios), args.Error(1)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}
