package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/equity-research/internal/resilience"
)

func noRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}
}

func TestQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/AAPL", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "AAPL",
			"price": 227.52,
			"previous_close": 225.10,
			"market_cap": 3450000000000,
			"volume": 51230000
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(noRetry()))
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.InDelta(t, 227.52, q.Price, 1e-9)
	assert.EqualValues(t, 51230000, q.Volume)
}

func TestDailyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/TSLA", r.URL.Path)
		assert.Equal(t, "252", r.URL.Query().Get("days"))
		w.Write([]byte(`{
			"symbol": "TSLA",
			"bars": [
				{"date": "2026-08-27", "open": 340, "high": 348, "low": 338, "close": 345.5, "volume": 90000000},
				{"date": "2026-08-28", "open": 346, "high": 352, "low": 344, "close": 351.2, "volume": 85000000}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(noRetry()))
	h, err := c.DailyHistory(context.Background(), "TSLA", 252)
	require.NoError(t, err)
	require.Len(t, h.Bars, 2)
	assert.Equal(t, []float64{345.5, 351.2}, h.Closes())
}

func TestRatios_NullFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": "TSLA", "pe_ratio": 62.4, "price_to_book": null, "dividend_yield": null, "beta": 2.1}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(noRetry()))
	r, err := c.Ratios(context.Background(), "TSLA")
	require.NoError(t, err)
	require.NotNil(t, r.PERatio)
	assert.InDelta(t, 62.4, *r.PERatio, 1e-9)
	assert.Nil(t, r.PriceToBook)
	assert.Nil(t, r.DividendYield)
}

func TestQuote_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(noRetry()))
	_, err := c.Quote(context.Background(), "ZZZZZZ")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDataUnavailable))
}

func TestQuote_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"symbol": "AAPL", "price": 227.52}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}))
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 227.52, q.Price, 1e-9)
	assert.EqualValues(t, 3, calls.Load())
}

func TestProfile_BadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid symbol"}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Profile(context.Background(), "!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.EqualValues(t, 1, calls.Load())
}
